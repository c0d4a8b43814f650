// Package evault runs the eVAULT REST facade: five role portals over a
// permissioned ledger plus a content-addressed document store.
//
// Quick Start:
//
//	shutdown, err := evault.Start("evault.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer shutdown()
//
// Or, with the config path in EVAULT_CONFIG and signal handling included:
//
//	if err := evault.Run(); err != nil {
//	    log.Fatal(err)
//	}
package evault

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sufield/evault/internal/adapters/inbound/httpapi"
	"github.com/sufield/evault/internal/adapters/outbound/compose"
	"github.com/sufield/evault/internal/config"
	"github.com/sufield/evault/internal/debug"
	"github.com/sufield/evault/internal/ports"
)

// resolveConfigPath returns the config file path from EVAULT_CONFIG.
//
// The library never assumes a default path; use Start(configPath) for
// explicit control.
func resolveConfigPath() (string, error) {
	if path := os.Getenv(config.EnvConfigPath); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%s environment variable not set; either set %s or call Start() with an explicit config path", config.EnvConfigPath, config.EnvConfigPath)
}

// App is a running eVAULT instance.
type App struct {
	cfg       config.Config
	connector ports.Connector
	server    *httpapi.Server

	shutdownOnce sync.Once
	shutdownErr  error
}

// New wires the configured ledger connector, document store and REST
// facade. Nothing listens until Start.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if cfg.Debug {
		debug.Enable()
	}

	connector, err := compose.NewConnector(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger connector: %w", err)
	}

	docs, err := compose.NewDocumentStore(cfg)
	if err != nil {
		_ = connector.Close()
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	router, err := httpapi.NewRouter(httpapi.Dependencies{
		Connector:    connector,
		Roles:        cfg.Roles,
		Documents:    docs,
		MaxBodyBytes: cfg.MaxBodyBytes(),
		AccessLog:    true,
		Debug:        debug.Active.Enabled,
	})
	if err != nil {
		_ = connector.Close()
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	server, err := httpapi.NewServer(ctx, cfg, router)
	if err != nil {
		_ = connector.Close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &App{cfg: cfg, connector: connector, server: server}, nil
}

// Start begins serving. Bind errors are returned.
func (a *App) Start() error {
	if err := a.server.Start(); err != nil {
		return err
	}
	log.Printf("eVAULT ledger backend: %s", a.cfg.Ledger.Backend)
	return nil
}

// Addr returns the address the API listens on.
func (a *App) Addr() string { return a.server.Addr() }

// Done is closed when the server stops serving.
func (a *App) Done() <-chan error { return a.server.Done() }

// Shutdown stops the server within server.shutdown_timeout and closes the
// ledger connector. It is safe to call more than once; later calls return
// the first call's result.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
		defer cancel()

		a.shutdownErr = errors.Join(
			a.server.Stop(ctx),
			a.connector.Close(),
		)
	})
	return a.shutdownErr
}

// Start loads configPath and starts serving.
//
// Returns:
//   - shutdown: stops the server and releases the ledger backend (idempotent)
//   - error: if config loading, backend setup or binding fails
func Start(configPath string) (shutdown func() error, err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	if err := app.Start(); err != nil {
		_ = app.Shutdown()
		return nil, fmt.Errorf("server startup failed: %w", err)
	}
	return app.Shutdown, nil
}

// StartServer is Start with the config path taken from EVAULT_CONFIG.
func StartServer() (shutdown func() error, err error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return Start(path)
}

// Run starts the server from EVAULT_CONFIG and blocks until SIGINT or
// SIGTERM, then shuts down gracefully.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	return Serve(ctx, path)
}

// Serve runs the server for configPath until ctx is cancelled or the
// server fails.
func Serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		_ = app.Shutdown()
		return fmt.Errorf("server startup failed: %w", err)
	}

	log.Println("Server running - press Ctrl+C to stop")

	var serveErr error
	select {
	case <-ctx.Done():
		log.Println("Shutting down gracefully...")
	case err, ok := <-app.Done():
		if ok {
			serveErr = err
		}
	}

	if err := app.Shutdown(); err != nil {
		return errors.Join(serveErr, fmt.Errorf("shutdown: %w", err))
	}
	return serveErr
}
