package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/specialistvlad/flowcanvas/internal/canvas"
	"github.com/specialistvlad/flowcanvas/internal/catalog"
	"github.com/spf13/cobra"
)

func loadCatalog(file string) (*catalog.Catalog, error) {
	if file == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(file)
}

func catalogCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the node types that can be placed on the canvas",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(file)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(cat.All())
			}

			brand.Fprintf(w, "Node catalog")
			subtle.Fprintf(w, " (%d types)\n", cat.Len())
			for _, category := range canvas.Categories {
				fmt.Fprintln(w)
				categoryColor[string(category)].Fprintln(w, strings.ToUpper(string(category)))
				for _, e := range cat.Entries(category) {
					fmt.Fprintf(w, "  %-20s %-20s ", e.Subtype, e.Name)
					subtle.Fprintln(w, e.Description)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "catalog", "", "HCL file with extra node types.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON.")
	return cmd
}
