// Package config holds the catalog configuration shared by the serve and
// load commands.
package config

import (
	"errors"
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/course-catalog/infrastructure/config"
)

// Storage drivers.
const (
	DriverMongoDB = "mongodb"
	DriverMemory  = "memory"
)

const (
	defaultLoaderFile     = "courses.json"
	defaultWatchDebounce  = 500 * time.Millisecond
	defaultMongoRetryWait = 250 * time.Millisecond
)

type Config struct {
	Debug   bool                      `env:"APP_DEBUG" yaml:"debug"`
	Server  infraconfig.ServerConfig  `yaml:"server"`
	MongoDB MongoDBConfig             `yaml:"mongodb"`
	Storage StorageConfig             `yaml:"storage"`
	Redis   infraconfig.RedisConfig   `yaml:"redis"`
	Logging infraconfig.LoggingConfig `yaml:"logging"`
	Loader  LoaderConfig              `yaml:"loader"`
}

// MongoDBConfig extends the shared connection settings with startup retries.
type MongoDBConfig struct {
	infraconfig.MongoConfig `yaml:",inline"`

	// ConnectAttempts bounds the startup connection retries.
	ConnectAttempts int           `env:"MONGODB_CONNECT_ATTEMPTS" yaml:"connect_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

// StorageConfig selects the course store implementation.
type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" yaml:"driver"`
}

// LoaderConfig holds defaults for the load command.
type LoaderConfig struct {
	File     string        `env:"LOADER_FILE"     yaml:"file"`
	Schedule string        `env:"LOADER_SCHEDULE" yaml:"schedule"`
	Debounce time.Duration `yaml:"debounce"`
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case DriverMongoDB:
		if err := c.MongoDB.Validate(); err != nil {
			return err
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be one of: %s, %s", DriverMongoDB, DriverMemory)
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Loader.File == "" {
		return errors.New("loader.file is required")
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults(path, setDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid config: %w", validateErr)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Server.SetDefaults()
	cfg.MongoDB.SetDefaults()
	if cfg.MongoDB.ConnectAttempts == 0 {
		cfg.MongoDB.ConnectAttempts = 5
	}
	if cfg.MongoDB.RetryDelay == 0 {
		cfg.MongoDB.RetryDelay = defaultMongoRetryWait
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverMongoDB
	}
	cfg.Redis.SetDefaults()
	// cfg.Redis.Enabled stays false unless set: events are opt-in.
	cfg.Logging.SetDefaults()
	if cfg.Debug {
		cfg.Logging.Level = "debug"
	}
	if cfg.Loader.File == "" {
		cfg.Loader.File = defaultLoaderFile
	}
	if cfg.Loader.Debounce == 0 {
		cfg.Loader.Debounce = defaultWatchDebounce
	}
}
