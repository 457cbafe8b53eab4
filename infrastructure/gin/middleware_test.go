package gin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ginpkg "github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/course-catalog/infrastructure/gin"
	"github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	ginpkg.SetMode(ginpkg.TestMode)
}

type recordingObserver struct {
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (r *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, method+" "+route)
	r.codes = append(r.codes, status)
}

func newTestRouter(t *testing.T) *ginpkg.Engine {
	t.Helper()

	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(logger.NewNop()))
	router.GET("/test", func(c *ginpkg.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func serve(router http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRequestIDLoggerMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	w := serve(newTestRouter(t), http.MethodGet, "/test", nil)

	assert.Len(t, w.Header().Get(infragin.RequestIDHeader), 32)
}

func TestRequestIDLoggerMiddleware_PreservesInboundID(t *testing.T) {
	t.Parallel()

	const inboundID = "trace-from-upstream-abc123"

	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(logger.NewNop()))

	var gotID string
	var gotLogger logger.Logger
	router.GET("/test", func(c *ginpkg.Context) {
		gotID = c.GetString(infragin.RequestIDKey)
		gotLogger = logger.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(router, http.MethodGet, "/test", map[string]string{infragin.RequestIDHeader: inboundID})

	assert.Equal(t, inboundID, w.Header().Get(infragin.RequestIDHeader))
	assert.Equal(t, inboundID, gotID)
	assert.NotNil(t, gotLogger)
}

func TestRequestIDLoggerMiddleware_RejectsOversizedID(t *testing.T) {
	t.Parallel()

	oversized := strings.Repeat("x", 200)
	w := serve(newTestRouter(t), http.MethodGet, "/test", map[string]string{infragin.RequestIDHeader: oversized})

	got := w.Header().Get(infragin.RequestIDHeader)
	assert.NotEmpty(t, got)
	assert.NotEqual(t, oversized, got)
}

func TestMetricsMiddleware_ReportsRouteTemplate(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	router := ginpkg.New()
	router.Use(infragin.MetricsMiddleware(obs))
	router.GET("/courses/:course_id", func(c *ginpkg.Context) { c.Status(http.StatusNotFound) })

	serve(router, http.MethodGet, "/courses/abc", nil)
	serve(router, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, []string{"GET /courses/:course_id", "GET unmatched"}, obs.routes)
	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound}, obs.codes)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"http://catalog.test"},
	}))
	router.GET("/courses", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	w := serve(router, http.MethodOptions, "/courses", map[string]string{"Origin": "http://catalog.test"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://catalog.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))

	w = serve(router, http.MethodGet, "/courses", map[string]string{"Origin": "http://evil.test"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware_UniformErrorBody(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.RecoveryMiddleware(logger.NewNop()))
	router.GET("/panic", func(*ginpkg.Context) { panic("boom") })

	w := serve(router, http.MethodGet, "/panic", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["detail"])
}

func TestServerBuilder_HealthChecks(t *testing.T) {
	t.Parallel()

	srv := infragin.NewServerBuilder("catalog", 0).
		WithLogger(logger.NewNop()).
		WithHealthCheck("mongodb", infragin.PingHealthChecker("MongoDB", infragin.HealthStatusUnhealthy,
			func(context.Context) error { return nil })).
		WithHealthCheck("redis", infragin.PingHealthChecker("Redis", infragin.HealthStatusDegraded,
			func(context.Context) error { return errors.New("refused") })).
		Build()

	w := serve(srv.Router(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp infragin.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, infragin.HealthStatusDegraded, resp.Status)
	assert.Equal(t, "catalog", resp.Service)
	assert.Equal(t, infragin.HealthStatusHealthy, resp.Checks["mongodb"].Status)
	assert.Equal(t, "Redis connection failed", resp.Checks["redis"].Message)

	assert.Equal(t, http.StatusOK, serve(srv.Router(), http.MethodHead, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, serve(srv.Router(), http.MethodGet, "/health/memory", nil).Code)
}

func TestServerBuilder_UnhealthyDependency(t *testing.T) {
	t.Parallel()

	srv := infragin.NewServerBuilder("catalog", 0).
		WithLogger(logger.NewNop()).
		WithHealthCheck("mongodb", infragin.PingHealthChecker("MongoDB", infragin.HealthStatusUnhealthy,
			func(context.Context) error { return errors.New("no reachable servers") })).
		Build()

	w := serve(srv.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
