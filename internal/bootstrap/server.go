package bootstrap

import (
	infragin "github.com/jonesrussell/course-catalog/infrastructure/gin"
	"github.com/jonesrussell/course-catalog/internal/api"
	"github.com/jonesrussell/course-catalog/internal/handlers"
)

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(app *App) *infragin.Server {
	handler := handlers.NewCourseHandler(app.Storage.Store, app.Publisher, app.Telemetry, app.Logger)

	checks := map[string]infragin.HealthChecker{
		app.Storage.Name: app.Storage.HealthCheck(),
	}
	if app.Publisher != nil {
		// Events are optional, so a broker outage only degrades the service.
		checks["redis"] = infragin.PingHealthChecker("redis", infragin.HealthStatusDegraded, app.Publisher.Ping)
	}

	return api.NewServer(app.Config, api.Deps{
		Handler:      handler,
		Telemetry:    app.Telemetry,
		HealthChecks: checks,
		Logger:       app.Logger,
		Version:      app.Version,
	})
}
