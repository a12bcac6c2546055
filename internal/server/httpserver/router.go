package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/internal/server/httpserver/handler"
	"github.com/yndnr/tasklist-go/internal/server/ratelimit"
	"github.com/yndnr/tasklist-go/internal/telemetry/metric"
	"github.com/yndnr/tasklist-go/internal/worker"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// TaskService handles task operations.
	TaskService *service.TaskService

	// Pool runs batch appends. Nil disables POST /tasks/batch.
	Pool *worker.Pool

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics receives request metrics and serves /metrics.
	// Nil uses the global registry.
	Metrics *metric.Registry

	// RateLimiter applies per-IP limits to task and admin routes.
	// Nil disables rate limiting.
	RateLimiter *ratelimit.Limiter

	// EnableAudit enables audit logging for task and admin routes.
	EnableAudit bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:      slog.Default(),
		RateLimiter: ratelimit.New(100, 200),
		EnableAudit: true,
	}
}

// Router is the top-level HTTP handler.
type Router struct {
	mux *http.ServeMux
	api *handler.Handler
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// SetReady switches the /ready probe.
func (rt *Router) SetReady(ready bool) {
	rt.api.SetReady(ready)
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) *Router {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	reg := cfg.Metrics
	if reg == nil {
		reg = metric.Global()
	}

	h := handler.New(cfg.TaskService, cfg.Pool, log)
	mux := http.NewServeMux()

	// Probes and metrics: no rate limit, no audit.
	base := []Middleware{Recover(log), RequestID(), Metrics(reg)}
	mux.Handle("GET /health", Chain(h, base...))
	mux.Handle("GET /ready", Chain(h, base...))
	mux.Handle("GET /metrics", Chain(reg.Handler(), Recover(log), RequestID()))

	// Order: Recover -> RequestID -> Metrics -> RateLimit -> Audit -> Handler
	api := append([]Middleware{}, base...)
	if cfg.RateLimiter != nil {
		api = append(api, RateLimit(cfg.RateLimiter))
	}
	if cfg.EnableAudit {
		api = append(api, Audit(log))
	}
	apiHandler := Chain(h, api...)

	mux.Handle("POST /tasks", apiHandler)
	mux.Handle("POST /tasks/batch", apiHandler)
	mux.Handle("GET /tasks", apiHandler)
	mux.Handle("GET /tasks/{index}", apiHandler)

	mux.Handle("GET /admin/v1/status/summary", apiHandler)

	return &Router{mux: mux, api: h}
}
