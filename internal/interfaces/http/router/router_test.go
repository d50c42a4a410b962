package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("/things").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		POST("", func(c *gin.Context) { c.Status(http.StatusCreated) }).
		PUT("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
		DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.Register(group).Setup()

	tests := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/api/v1/things/ping", http.StatusOK, "pong"},
		{http.MethodPost, "/api/v1/things", http.StatusCreated, ""},
		{http.MethodPut, "/api/v1/things/7", http.StatusOK, "7"},
		{http.MethodDelete, "/api/v1/things/7", http.StatusNoContent, ""},
		{http.MethodGet, "/things/ping", http.StatusNotFound, "404 page not found"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.status, w.Code, tt.method+" "+tt.path)
		assert.Equal(t, tt.body, w.Body.String(), tt.method+" "+tt.path)
	}
}

func TestMiddlewareScopes(t *testing.T) {
	engine := gin.New()
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Writer.Header().Add("X-Seen", name)
			c.Next()
		}
	}

	r := NewRouter(engine).Use(mark("api"))
	guarded := NewDomainGroup("/guarded").Use(mark("group"))
	guarded.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	open := NewDomainGroup("/open")
	open.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.Register(guarded).Register(open).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/guarded", nil))
	assert.Equal(t, []string{"api", "group"}, w.Header().Values("X-Seen"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/open", nil))
	assert.Equal(t, []string{"api"}, w.Header().Values("X-Seen"))
}
