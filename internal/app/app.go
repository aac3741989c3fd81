package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/specialistvlad/flowcanvas/internal/canvas"
	"github.com/specialistvlad/flowcanvas/internal/catalog"
	"github.com/specialistvlad/flowcanvas/internal/ctxlog"
	"github.com/specialistvlad/flowcanvas/internal/persist"
	"github.com/specialistvlad/flowcanvas/internal/server"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx     context.Context
	logger  *slog.Logger
	config  *Config
	catalog *catalog.Catalog
	saver   persist.Saver
	loader  server.Loader
	server  *server.Server

	closers []func() error
}

// NewApp builds every collaborator named by cfg. Logs go to outW.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{ctx: ctx, logger: logger, config: cfg}

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		var err error
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	a.catalog = cat
	logger.Debug("Catalog loaded.", "entries", cat.Len())

	// Loading is only offered where saves land; the API backend has no loader.
	switch cfg.Storage.Backend {
	case StorageFile:
		store := persist.NewFileStore(cfg.Storage.WorkflowDir)
		a.loader = store
		a.saver = store
	case StorageAPI:
		client := persist.NewAPIClient(persist.APIOptions{
			BaseURL:    cfg.API.BaseURL,
			Token:      cfg.API.Token,
			RetryCount: cfg.API.RetryCount,
			Timeout:    cfg.API.Timeout.Duration,
		})
		a.saver = client
		a.closers = append(a.closers, client.Close)
	}
	logger.Debug("Save backend configured.", "backend", cfg.Storage.Backend, "workflow_dir", cfg.Storage.WorkflowDir)

	a.server = server.New(ctx, server.Options{
		Size:    canvas.Size{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height},
		Catalog: cat,
		Saver:   a.saver,
		Loader:  a.loader,
	})
	return a, nil
}

// Catalog returns the node catalog in use.
func (a *App) Catalog() *catalog.Catalog { return a.catalog }

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Run listens on the configured address and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.ListenAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully within
// the configured shutdown timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{Handler: a.Handler()}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("🎨 Editor server starting", "address", ln.Addr().String())
		// ErrServerClosed is returned after a graceful shutdown.
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("Server failed unexpectedly", "error", err)
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout.Duration)
	defer cancel()

	a.logger.Info("Shutting down editor server...")
	a.server.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown failed", "error", err)
		return err
	}
	a.logger.Debug("Server shut down gracefully.")
	return nil
}

// Close releases the save backend.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
