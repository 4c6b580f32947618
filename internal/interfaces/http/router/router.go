package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/infrastructure/logger"
	"github.com/boodo/silvasync/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under a versioned API group
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithGroupMiddleware adds middleware that runs for API routes only
func WithGroupMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/"+r.apiVersion, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineConfig configures the gin engine of the webhook server
type EngineConfig struct {
	ServiceName    string
	Tracing        bool
	TrustedProxies []string
	MaxBodySize    int64
	WebhookSecret  string
	Health         gin.HandlerFunc
	Metrics        http.Handler
}

// NewEngine builds the gin engine with recovery, request logging and
// tracing, the /health and /metrics probes, and the API group guarded by
// the body limit and webhook secret.
func NewEngine(cfg EngineConfig, log *zap.Logger, registrars ...RouteRegistrar) (*gin.Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(logger.Recovery(log), logger.GinMiddleware(log))
	if cfg.Tracing {
		engine.Use(middleware.Tracing(cfg.ServiceName)...)
	}

	if cfg.Health != nil {
		engine.GET("/health", cfg.Health)
	}
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	r := NewRouter(engine, WithGroupMiddleware(
		middleware.BodyLimit(cfg.MaxBodySize),
		middleware.WebhookSecret(cfg.WebhookSecret),
	))
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()
	return engine, nil
}
