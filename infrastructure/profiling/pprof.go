// Package profiling exposes the net/http/pprof endpoints on a loopback port.
package profiling

import (
	"errors"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // served on loopback only
	"os"
	"time"

	"github.com/jonesrussell/course-catalog/infrastructure/logger"
)

const (
	defaultPprofPort  = "6060"
	readHeaderTimeout = 5 * time.Second
)

// StartPprofServer starts the pprof server when ENABLE_PROFILING=true.
// PPROF_PORT overrides the default port 6060. The listener binds to
// localhost so profiles are never reachable from outside the host.
func StartPprofServer(log logger.Logger) {
	if os.Getenv("ENABLE_PROFILING") != "true" {
		return
	}

	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = defaultPprofPort
	}
	addr := net.JoinHostPort("localhost", port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info("Starting pprof server", logger.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("pprof server stopped", logger.Error(err))
		}
	}()
}
