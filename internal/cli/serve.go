package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/flowcanvas/internal/app"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	configPath  string
	listen      string
	logLevel    string
	logFormat   string
	storage     string
	workflowDir string
	apiURL      string
	apiToken    string
	catalogFile string
	width       float64
	height      float64
}

func serveCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editor server",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			a, err := app.NewApp(cmd.OutOrStdout(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}

	defaults := app.DefaultConfig()
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "Path to a TOML config file.")
	fl.StringVar(&f.listen, "listen", defaults.ListenAddr, "Address to serve socket.io and /health on.")
	fl.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fl.StringVar(&f.logFormat, "log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	fl.StringVar(&f.storage, "storage", defaults.Storage.Backend, "Save backend. Options: 'file' or 'api'.")
	fl.StringVar(&f.workflowDir, "workflow-dir", defaults.Storage.WorkflowDir, "Directory holding saved workflow files.")
	fl.StringVar(&f.apiURL, "api-url", "", "Base URL of the workflow API for the 'api' backend.")
	fl.StringVar(&f.apiToken, "api-token", "", "Bearer token for the workflow API.")
	fl.StringVar(&f.catalogFile, "catalog", "", "HCL file with extra node types.")
	fl.Float64Var(&f.width, "width", defaults.Canvas.Width, "Canvas width.")
	fl.Float64Var(&f.height, "height", defaults.Canvas.Height, "Canvas height.")
	return cmd
}

// config layers defaults, the optional config file and explicitly set flags,
// in that order.
func (f *serveFlags) config(cmd *cobra.Command) (*app.Config, error) {
	cfg := app.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = app.LoadConfigFile(f.configPath, cfg); err != nil {
			return nil, usageError(err)
		}
	}

	fl := cmd.Flags()
	set := func(name string, apply func()) {
		if fl.Changed(name) {
			apply()
		}
	}
	set("listen", func() { cfg.ListenAddr = f.listen })
	set("log-level", func() { cfg.LogLevel = f.logLevel })
	set("log-format", func() { cfg.LogFormat = f.logFormat })
	set("storage", func() { cfg.Storage.Backend = f.storage })
	set("workflow-dir", func() { cfg.Storage.WorkflowDir = f.workflowDir })
	set("api-url", func() { cfg.API.BaseURL = f.apiURL })
	set("api-token", func() { cfg.API.Token = f.apiToken })
	set("catalog", func() { cfg.CatalogFile = f.catalogFile })
	set("width", func() { cfg.Canvas.Width = f.width })
	set("height", func() { cfg.Canvas.Height = f.height })
	if cfg.API.Token == "" {
		cfg.API.Token = os.Getenv("FLOWCANVAS_API_TOKEN")
	}

	valid, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return valid, nil
}
