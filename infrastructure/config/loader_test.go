package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/course-catalog/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server  config.ServerConfig  `yaml:"server"`
	MongoDB config.MongoConfig   `yaml:"mongodb"`
	Redis   config.RedisConfig   `yaml:"redis"`
	Logging config.LoggingConfig `yaml:"logging"`
}

func setDefaults(cfg *testConfig) {
	cfg.Server.SetDefaults()
	cfg.MongoDB.SetDefaults()
	cfg.Redis.SetDefaults()
	cfg.Logging.SetDefaults()
}

func writeFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadWithDefaults_YAMLValues(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	path := writeFile(t, `
server:
  port: 9100
  read_timeout: 5s
mongodb:
  uri: mongodb://mongo:27017
  database: catalog
`)

	cfg, err := config.LoadWithDefaults(path, setDefaults)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "mongodb://mongo:27017", cfg.MongoDB.URI)
	assert.Equal(t, "catalog", cfg.MongoDB.Database)
	assert.Equal(t, "courses", cfg.MongoDB.Collection)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithDefaults_EnvOverridesFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("MONGODB_DATABASE", "from_env")
	t.Setenv("REDIS_EVENTS_ENABLED", "true")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	path := writeFile(t, "mongodb:\n  database: from_file\n")

	cfg, err := config.LoadWithDefaults(path, setDefaults)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.MongoDB.Database)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoadWithDefaults_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := config.LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yml"), setDefaults)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "kimo_courses_db", cfg.MongoDB.Database)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Address())
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	path := writeFile(t, "server: [unterminated")

	_, err := config.Load[testConfig](path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestMongoConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := config.MongoConfig{}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	cfg.URI = "postgres://localhost"
	err := cfg.Validate()
	var vErr *config.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "mongodb.uri", vErr.Field)
}

func TestRedisConfig_ValidateOnlyWhenEnabled(t *testing.T) {
	t.Parallel()

	cfg := config.RedisConfig{}
	assert.NoError(t, cfg.Validate())

	cfg.Enabled = true
	assert.Error(t, cfg.Validate())
}
