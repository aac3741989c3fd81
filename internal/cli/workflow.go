package cli

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/flowcanvas/internal/canvas"
	"github.com/specialistvlad/flowcanvas/internal/persist"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow.hcl>",
		Short: "Check a saved workflow file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			doc, err := persist.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				bad.Fprintf(w, "✗ %s is invalid\n", args[0])
				return &ExitError{Code: 1, Message: err.Error()}
			}
			good.Fprintf(w, "✓ %s", args[0])
			subtle.Fprintf(w, " %q: %d nodes, %d connections\n", doc.Name, len(doc.Nodes), len(doc.Connections))
			return nil
		},
	}
}

func renderCmd() *cobra.Command {
	var (
		width, height float64
		catalogFile   string
	)
	cmd := &cobra.Command{
		Use:   "render <workflow.hcl>",
		Short: "Print the canvas scene of a saved workflow as JSON",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 || height <= 0 {
				return usageError(fmt.Errorf("canvas size %gx%g must be positive", width, height))
			}
			cat, err := loadCatalog(catalogFile)
			if err != nil {
				return err
			}
			doc, err := persist.LoadFile(args[0])
			if err != nil {
				return err
			}
			c := canvas.New(canvas.Size{Width: width, Height: height}, cat)
			doc.Restore(c)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c.Scene())
		},
	}
	cmd.Flags().Float64Var(&width, "width", 1200, "Canvas width.")
	cmd.Flags().Float64Var(&height, "height", 800, "Canvas height.")
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "HCL file with extra node types.")
	return cmd
}
