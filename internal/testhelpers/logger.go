package testhelpers

import (
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
)

// NewTestLogger returns a logger that writes debug output to stderr, or a
// no-op logger if construction fails.
func NewTestLogger() infralogger.Logger {
	log, err := infralogger.New(infralogger.Config{
		Level:       "debug",
		Format:      infralogger.FormatConsole,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return infralogger.NewNop()
	}
	return log
}
