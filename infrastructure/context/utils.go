// Package context provides timeout helpers shared by the service and the loader.
package context

import (
	"context"
	"time"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown of the HTTP server.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultPingTimeout bounds store and broker health pings.
	DefaultPingTimeout = 5 * time.Second

	// DefaultLoadTimeout bounds a single loader run.
	DefaultLoadTimeout = 2 * time.Minute
)

// WithShutdownTimeout creates a context with the default shutdown timeout.
func WithShutdownTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultShutdownTimeout)
}

// WithPingTimeout derives a context bounded by the default ping timeout.
func WithPingTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultPingTimeout)
}

// WithLoadTimeout derives a context bounded by the default loader timeout.
func WithLoadTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultLoadTimeout)
}
