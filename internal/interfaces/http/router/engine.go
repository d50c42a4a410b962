package router

import (
	"fmt"

	_ "github.com/customers/backend/docs"
	"github.com/customers/backend/internal/infrastructure/config"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/customers/backend/internal/interfaces/http/handler"
	"github.com/customers/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Options wires the engine. Meter, Auth and the tracing service name are
// optional; leaving them empty disables the matching middleware.
type Options struct {
	HTTP               config.HTTPConfig
	SwaggerEnabled     bool
	TracingServiceName string
	Meter              metric.Meter
	Auth               *middleware.BearerAuthConfig
	Logger             *zap.Logger
}

// Handlers are the endpoint implementations mounted by NewEngine
type Handlers struct {
	Customer *handler.CustomerHandler
	Health   *handler.HealthHandler
}

// NewEngine builds the gin engine: the global middleware stack, health
// probes, swagger UI and the /api/v1/customers routes.
func NewEngine(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	}

	engine.Use(middleware.RequestID())
	if opts.TracingServiceName != "" {
		engine.Use(
			middleware.Tracing(opts.TracingServiceName),
			middleware.SpanEnricher(),
			middleware.SpanErrorMarker(),
		)
	}
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORS(cors))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))

	httpMetrics, err := middleware.HTTPMetrics(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}
	engine.Use(httpMetrics)

	if h.Health != nil {
		engine.GET("/health/live", h.Health.Live)
		engine.GET("/health/ready", h.Health.Ready)
	}

	if opts.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if h.Customer != nil {
		customers := NewDomainGroup("/customers")
		if opts.Auth != nil {
			customers.Use(middleware.BearerAuth(*opts.Auth))
		}
		customers.POST("", h.Customer.Create).
			GET("", h.Customer.List).
			GET("/:id", h.Customer.GetByID).
			PUT("/:id", h.Customer.Update).
			DELETE("/:id", h.Customer.Delete)
		r.Register(customers)
	}
	r.Setup()

	return engine, nil
}
