package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/af3-portal/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(engine, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestIdentity(t *testing.T) {
	engine := gin.New()
	engine.Use(Identity(IdentityConfig{}))
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetUser(c)) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, AnonymousUser, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HTTP_UID", " alice ")
	w = serve(engine, req)
	assert.Equal(t, "alice", w.Body.String())
}

func TestIdentity_CustomHeader(t *testing.T) {
	engine := gin.New()
	engine.Use(Identity(IdentityConfig{Header: "X-Remote-User", Fallback: "guest"}))
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetUser(c)) })

	assert.Equal(t, "guest", serve(engine, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Remote-User", "bob")
	assert.Equal(t, "bob", serve(engine, req).Body.String())
}

func TestRequestLogging(t *testing.T) {
	log := testutil.NewMockLogger()
	engine := gin.New()
	engine.Use(RequestID(), Identity(IdentityConfig{}), RequestLogging(log, DefaultLoggingConfig()))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/bad", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })
	engine.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/bad", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/boom", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, 3, len(log.GetMessages()))
	info, ok := log.Find("info", "HTTP request")
	require.True(t, ok)
	path, _ := info.Field("path")
	assert.Equal(t, "/ok?x=1", path)
	user, _ := info.Field("user")
	assert.Equal(t, AnonymousUser, user)

	assert.Equal(t, 1, log.Count("warn"))
	assert.Equal(t, 1, log.Count("error"))
}

func TestRecovery(t *testing.T) {
	log := testutil.NewMockLogger()
	engine := gin.New()
	engine.Use(Recovery(log))
	engine.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":"COMMON_001","message":"internal server error"}`, w.Body.String())
	assert.True(t, log.HasMessage("error", "panic recovered"))
}

func TestMetrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "af3portal"}, nil)
	require.NoError(t, err)
	engine := gin.New()
	engine.Use(Metrics(prometheus.NewAppMetrics(collector)))
	engine.GET("/api/v1/jobs/:name/:timestamp/archive", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(engine, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/a/b/archive", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	out := testutil.ScrapeMetrics(t, collector.Handler())
	assert.Contains(t, out, `af3portal_http_requests_total{method="GET",path="/api/v1/jobs/:name/:timestamp/archive",status_code="404"} 1`)
	assert.Contains(t, out, `af3portal_http_requests_total{method="GET",path="unmatched",status_code="404"} 1`)
}
