package bootstrap

import (
	"context"
	"fmt"

	infragin "github.com/jonesrussell/course-catalog/infrastructure/gin"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/internal/config"
	"github.com/jonesrussell/course-catalog/internal/database"
	"github.com/jonesrussell/course-catalog/internal/handlers"
	"github.com/jonesrussell/course-catalog/internal/loader"
	"github.com/jonesrussell/course-catalog/internal/repository"
)

// CourseStore is implemented by both repository drivers.
type CourseStore interface {
	handlers.CourseStore
	loader.Store
	Ping(ctx context.Context) error
}

// Storage is the configured course store plus its lifecycle hooks.
type Storage struct {
	Store CourseStore
	// Name labels the store in health output.
	Name  string
	close func(ctx context.Context) error
}

// HealthCheck reports the store unhealthy when it cannot be pinged.
func (s *Storage) HealthCheck() infragin.HealthChecker {
	return infragin.PingHealthChecker(s.Name, infragin.HealthStatusUnhealthy, s.Store.Ping)
}

func (s *Storage) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// SetupStorage opens the store selected by storage.driver.
func SetupStorage(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory course store, data is lost on exit")
		return &Storage{
			Store: repository.NewMemoryCourseRepository(),
			Name:  config.DriverMemory,
		}, nil

	case config.DriverMongoDB:
		db, err := database.New(ctx, cfg.MongoDB, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return &Storage{
			Store: repository.NewCourseRepository(db.Collection(), log),
			Name:  config.DriverMongoDB,
			close: db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
