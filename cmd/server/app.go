package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/kegg-explore-api/internal/config"
	"github.com/phrazzld/kegg-explore-api/internal/job"
	"github.com/phrazzld/kegg-explore-api/internal/kegg"
	"github.com/phrazzld/kegg-explore-api/internal/platform/postgres"
	"github.com/phrazzld/kegg-explore-api/internal/progress"
	"github.com/phrazzld/kegg-explore-api/internal/service"
	"github.com/phrazzld/kegg-explore-api/internal/store"
	"github.com/phrazzld/kegg-explore-api/internal/task"
)

// application holds all shared dependencies and services, acting as a
// container for dependency injection throughout the application.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	organismStore store.OrganismStore
	geneStore     store.GeneStore
	taskStore     *postgres.PostgresTaskStore
	progressStore progress.KeyValueStore

	// Background processing
	taskRunner  *task.TaskRunner
	taskFactory *task.OrganismProcessingTaskFactory

	// Services
	organismService service.OrganismService
	geneService     service.GeneService
	processService  service.ProcessService
	csvExporter     *service.CSVExporter
}

// newApplication wires together all application components: stores,
// the progress tracker backend, the job pipeline, the task runner, and
// the service layer. The task runner is started before returning, so a
// successful call means the application is fully operational.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	appLogger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if appLogger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}

	app := &application{
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	app.organismStore = postgres.NewPostgresOrganismStore(db, appLogger)
	app.geneStore = postgres.NewPostgresGeneStore(db, appLogger)
	app.progressStore = setupProgressStore(ctx, cfg.Redis, appLogger)

	// Each job builds its own client so the rate limiter is scoped to
	// that job rather than shared across the whole process.
	newClient := func() job.KEGGClient {
		return kegg.NewClient(kegg.Config{
			BaseURL:      cfg.KEGG.BaseURL,
			RateInterval: cfg.KEGG.RateInterval,
			MaxRetries:   cfg.KEGG.MaxRetries,
		}, appLogger)
	}

	processor := job.NewProcessor(
		app.organismStore,
		app.geneStore,
		app.progressStore,
		newClient,
		cfg.Worker.ResolveConcurrency,
		appLogger,
	)

	app.taskFactory = task.NewOrganismProcessingTaskFactory(
		processor,
		cfg.Worker.JobTimeout,
		appLogger,
	)

	// The factory's ExecuteFn rebuilds execution closures for tasks
	// loaded back out of the database after a restart.
	app.taskStore = postgres.NewPostgresTaskStore(db, app.taskFactory.ExecuteFn)

	runnerConfig := task.DefaultTaskRunnerConfig()
	runnerConfig.WorkerCount = cfg.Worker.Count
	runnerConfig.QueueSize = cfg.Worker.QueueSize
	app.taskRunner = task.NewTaskRunner(app.taskStore, runnerConfig, appLogger)

	if err := app.setupServices(); err != nil {
		return nil, err
	}

	// Start also requeues tasks left unfinished by a previous run.
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	return app, nil
}

// setupServices creates the service layer on top of the stores and the
// task runner.
func (app *application) setupServices() error {
	var err error

	app.organismService, err = service.NewOrganismService(app.organismStore, app.db, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create organism service: %w", err)
	}

	app.geneService, err = service.NewGeneService(app.geneStore, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create gene service: %w", err)
	}

	app.processService, err = service.NewProcessService(
		app.organismStore,
		app.geneStore,
		app.progressStore,
		app.taskFactory,
		app.taskRunner,
		app.db,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create process service: %w", err)
	}

	app.csvExporter, err = service.NewCSVExporter(app.geneStore, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create CSV exporter: %w", err)
	}

	return nil
}

// setupProgressStore connects to Redis for live progress tracking.
// Progress data is ephemeral and the database keeps the durable
// status, so on connection failure the server degrades to an in-memory
// store instead of refusing to start.
func setupProgressStore(
	ctx context.Context,
	cfg config.RedisConfig,
	appLogger *slog.Logger,
) progress.KeyValueStore {
	redisStore, err := progress.NewRedisStoreFromURL(ctx, cfg.URL)
	if err != nil {
		appLogger.Warn("Redis unavailable, falling back to in-memory progress store",
			"error", err)
		return progress.NewMemoryStore()
	}

	appLogger.Info("Connected to Redis progress store")
	return redisStore
}

// cleanup releases application resources in reverse order of
// acquisition: stop accepting and executing tasks, then close the
// database pool.
func (app *application) cleanup() {
	app.logger.Info("Cleaning up application resources")

	app.taskRunner.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("Failed to close database connection", "error", err)
	}
}
