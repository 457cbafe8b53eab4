// Package api assembles the catalog HTTP server.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/course-catalog/infrastructure/gin"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/internal/config"
	"github.com/jonesrussell/course-catalog/internal/handlers"
	"github.com/jonesrussell/course-catalog/internal/telemetry"
)

const serviceName = "course-catalog"

// Deps carries what the server needs beyond configuration.
type Deps struct {
	Handler      *handlers.CourseHandler
	Telemetry    *telemetry.Provider
	HealthChecks map[string]infragin.HealthChecker
	Logger       infralogger.Logger
	Version      string
}

// NewServer creates the catalog HTTP server using the infrastructure gin package.
func NewServer(cfg *config.Config, deps Deps) *infragin.Server {
	builder := infragin.NewServerBuilder(serviceName, cfg.Server.Port).
		WithLogger(deps.Logger).
		WithHost(cfg.Server.Host).
		WithDebug(cfg.Debug).
		WithVersion(deps.Version).
		WithCORSOrigins(cfg.Server.CORSOrigins).
		WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout).
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, deps.Handler)
			if deps.Telemetry != nil {
				router.GET("/metrics", gin.WrapH(deps.Telemetry.Handler()))
			}
		})

	if deps.Telemetry != nil {
		builder = builder.WithMiddleware(infragin.MetricsMiddleware(deps.Telemetry))
	}
	for name, check := range deps.HealthChecks {
		builder = builder.WithHealthCheck(name, check)
	}

	return builder.Build()
}

// SetupRoutes registers the course endpoints. Every route answers with and
// without a trailing slash.
func SetupRoutes(router gin.IRoutes, h *handlers.CourseHandler) {
	handle(router, http.MethodGet, "/courses", h.ListCourses)
	handle(router, http.MethodGet, "/courses/:course_id", h.GetCourse)
	handle(router, http.MethodGet, "/courses/:course_id/chapters", h.ListChapters)
	handle(router, http.MethodGet, "/courses/:course_id/chapters/:chapter_id", h.GetChapter)
	handle(router, http.MethodPost, "/courses/:course_id/chapters/:chapter_id/rate", h.RateChapter)
}

func handle(router gin.IRoutes, method, path string, h gin.HandlerFunc) {
	router.Handle(method, path, h)
	router.Handle(method, path+"/", h)
}
