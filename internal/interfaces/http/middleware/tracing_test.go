package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r := gin.New()
	r.Use(RequestID(), Tracing("customers-test", otelgin.WithTracerProvider(provider)), SpanEnricher(), SpanErrorMarker())
	r.GET("/api/v1/customers/:id", func(c *gin.Context) {
		c.Set(SubjectKey, "svc-orders")
		c.Status(http.StatusOK)
	})
	r.GET("/api/v1/broken", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
	})
	r.GET("/health/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, recorder
}

func TestTracing(t *testing.T) {
	t.Run("span carries route and request attributes", func(t *testing.T) {
		router, recorder := tracedRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/42", nil)
		req.Header.Set(RequestIDHeader, "req-trace")
		router.ServeHTTP(httptest.NewRecorder(), req)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		s := spans[0]
		assert.Contains(t, s.Name(), "/api/v1/customers/:id")
		assert.Contains(t, s.Attributes(), attribute.String("request_id", "req-trace"))
		assert.Contains(t, s.Attributes(), attribute.String("auth.subject", "svc-orders"))
		assert.NotEqual(t, codes.Error, s.Status().Code)
	})

	t.Run("error responses mark the span", func(t *testing.T) {
		router, recorder := tracedRouter(t)
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/broken", nil))

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("health probes are not traced", func(t *testing.T) {
		router, recorder := tracedRouter(t)
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

		assert.Empty(t, recorder.Ended())
	})
}
