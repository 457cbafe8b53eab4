// Package bootstrap wires configuration, storage, events and telemetry
// into the serve and load commands.
package bootstrap

import (
	"context"
	"fmt"

	infracontext "github.com/jonesrussell/course-catalog/infrastructure/context"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/infrastructure/profiling"
	"github.com/jonesrussell/course-catalog/internal/config"
	"github.com/jonesrussell/course-catalog/internal/events"
	"github.com/jonesrussell/course-catalog/internal/telemetry"
)

// Options are the command-line inputs shared by every command.
type Options struct {
	ConfigPath string
	Debug      bool
	Version    string
}

// App holds the initialized dependencies of one process.
type App struct {
	Config    *config.Config
	Logger    infralogger.Logger
	Storage   *Storage
	Publisher *events.Publisher
	Telemetry *telemetry.Provider
	Version   string
}

// Setup loads configuration and connects to the configured store and broker.
func Setup(ctx context.Context, opts Options) (*App, error) {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig(opts.ConfigPath, opts.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg, opts.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Phase 2: Setup course store
	storage, err := SetupStorage(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to set up storage: %w", err)
	}

	// Phase 3: Setup event publisher (optional)
	publisher := SetupEventPublisher(ctx, cfg, log)

	return &App{
		Config:    cfg,
		Logger:    log,
		Storage:   storage,
		Publisher: publisher,
		Telemetry: telemetry.NewProvider(),
		Version:   opts.Version,
	}, nil
}

// Close releases the store and broker connections.
func (a *App) Close() {
	ctx, cancel := infracontext.WithShutdownTimeout()
	defer cancel()

	if err := a.Storage.Close(ctx); err != nil {
		a.Logger.Error("Failed to close course store", infralogger.Error(err))
	}
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Error("Failed to close event publisher", infralogger.Error(err))
	}
	_ = a.Logger.Sync()
}

// Serve runs the HTTP service until ctx is cancelled or a signal arrives.
func Serve(ctx context.Context, opts Options) error {
	app, err := Setup(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	profiling.StartPprofServer(app.Logger)

	// Phase 4: Seed the in-memory store so a fresh process has data
	if app.Config.Storage.Driver == config.DriverMemory {
		SeedMemoryStore(ctx, app)
	}

	// Phase 5: Setup and run HTTP server
	server := SetupHTTPServer(app)
	if runErr := server.RunWithGracefulShutdown(ctx); runErr != nil {
		app.Logger.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	app.Logger.Info("Server exited")
	return nil
}
