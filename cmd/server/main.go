// Package main implements the entry point for the kegg-explore API
// server, which manages organisms, fetches their gene catalogs from
// the KEGG REST API, and resolves orthologous genes in the background.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/kegg-explore-api/internal/config"
	"github.com/phrazzld/kegg-explore-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

// run loads configuration, wires the application together, and serves
// until a shutdown signal arrives. Split out of main so initialization
// failures propagate as errors instead of os.Exit calls sprinkled
// through the wiring code.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"kegg_base_url", cfg.KEGG.BaseURL,
		"worker_count", cfg.Worker.Count)

	ctx := context.Background()

	db, err := setupDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
