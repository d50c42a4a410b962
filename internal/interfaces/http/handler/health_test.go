package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/customers/backend/internal/infrastructure/health"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChecker health.Report

func (s staticChecker) Check(context.Context) health.Report {
	return health.Report(s)
}

func serveHealth(checker ReadinessChecker, path string) *httptest.ResponseRecorder {
	h := NewHealthHandler(checker)
	r := gin.New()
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthHandler_Live(t *testing.T) {
	w := serveHealth(staticChecker{}, "/health/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Run("all ok", func(t *testing.T) {
		w := serveHealth(staticChecker{"postgres": "ok", "redis": "ok", "pubsub": "ok"}, "/health/ready")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"postgres":"ok","redis":"ok","pubsub":"ok"}`, w.Body.String())
	})

	t.Run("one failing check", func(t *testing.T) {
		w := serveHealth(staticChecker{"postgres": "ok", "redis": "error: connection refused", "pubsub": "ok"}, "/health/ready")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var report map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, "error: connection refused", report["redis"])
	})
}
