package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request through otelgin. Health probes
// are not traced.
func Tracing(serviceName string, opts ...otelgin.Option) gin.HandlerFunc {
	opts = append(opts, otelgin.WithFilter(func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, "/health")
	}))
	return otelgin.Middleware(serviceName, opts...)
}

// SpanEnricher adds request-scoped attributes to the active span. Place it
// after Tracing so the span already exists.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
		}
		c.Next()
		if span.IsRecording() {
			if subject := c.GetString(SubjectKey); subject != "" {
				span.SetAttributes(attribute.String("auth.subject", subject))
			}
		}
	}
}

// SpanErrorMarker sets an error status on the span for 4xx and 5xx
// responses
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
