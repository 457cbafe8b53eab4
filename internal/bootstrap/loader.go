package bootstrap

import (
	"context"
	"errors"
	"os"

	infracontext "github.com/jonesrussell/course-catalog/infrastructure/context"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/internal/loader"
)

// NewLoader builds a loader over the app's store, publisher and metrics.
func NewLoader(app *App) *loader.Loader {
	return loader.New(app.Storage.Store, app.Publisher, app.Telemetry, app.Logger)
}

// SeedMemoryStore loads loader.file into the store. A missing or invalid
// file leaves the store empty and the service running.
func SeedMemoryStore(ctx context.Context, app *App) {
	path := app.Config.Loader.File
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		app.Logger.Warn("Seed file not found, starting with an empty catalog",
			infralogger.String("file", path),
		)
		return
	}

	loadCtx, cancel := infracontext.WithLoadTimeout(ctx)
	defer cancel()

	if _, err := NewLoader(app).Run(loadCtx, path); err != nil {
		app.Logger.Warn("Seeding in-memory store failed, starting with an empty catalog",
			infralogger.Error(err),
		)
	}
}
