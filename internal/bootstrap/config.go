package bootstrap

import (
	"fmt"

	infraconfig "github.com/jonesrussell/course-catalog/infrastructure/config"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/internal/config"
)

const defaultConfigPath = "config.yml"

// LoadConfig loads configuration from path, falling back to CONFIG_PATH
// and then config.yml. debug forces debug mode on.
func LoadConfig(path string, debug bool) (*config.Config, error) {
	if path == "" {
		path = infraconfig.GetConfigPath(defaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, version string) (infralogger.Logger, error) {
	log, err := infralogger.New(infralogger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		infralogger.String("service", "course-catalog"),
		infralogger.String("version", version),
	), nil
}
