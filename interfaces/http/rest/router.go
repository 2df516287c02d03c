package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"nodetree/application/commands/bus"
	"nodetree/application/ports"
	querybus "nodetree/application/queries/bus"
	"nodetree/interfaces/http/rest/handlers"
	"nodetree/interfaces/http/rest/middleware"
	"nodetree/pkg/common"
	pkgerrors "nodetree/pkg/errors"
	"nodetree/pkg/ratelimit"
)

const readinessTimeout = 2 * time.Second

// Options controls the optional parts of the HTTP surface
type Options struct {
	EnableCORS  bool
	CORSOrigins []string
	// Debug exposes internal error text in 5xx bodies
	Debug bool
	// Tracing starts a server span per request
	Tracing bool
	// Metrics, when set, records requests and serves GET /metrics
	Metrics MetricsExporter
	// RateLimiter, when set, throttles the /nodes routes per client IP
	RateLimiter ratelimit.Limiter
}

// MetricsExporter records HTTP requests and serves the scrape endpoint
type MetricsExporter interface {
	middleware.HTTPRecorder
	Handler() http.Handler
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	health     ports.HealthChecker
	options    Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance. health may be nil, in which
// case readiness always succeeds.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	health ports.HealthChecker,
	options Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		health:     health,
		options:    options,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.options.Debug)
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.options.Tracing {
		router.Use(middleware.Tracing("nodetree"))
	}
	if rt.options.Metrics != nil {
		router.Use(middleware.Metrics(rt.options.Metrics))
	}

	if rt.options.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.options.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.options.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.options.Metrics.Handler())
	}

	nodeHandler := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
	router.Route("/nodes", func(r chi.Router) {
		if rt.options.RateLimiter != nil {
			r.Use(middleware.RateLimit(rt.options.RateLimiter, errorHandler, rt.logger))
		}
		r.Get("/", nodeHandler.ListNodes)
		r.Post("/", nodeHandler.CreateNode)
		r.Get("/tree", nodeHandler.GetTree)
		r.Get("/{nodeID}", nodeHandler.GetNode)
		r.Patch("/{nodeID}", nodeHandler.RenameNode)
		r.Delete("/{nodeID}", nodeHandler.DeleteNode)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	common.RespondJSON(w, rt.logger, http.StatusOK, common.StatusResponse{Status: "healthy"})
}

// readinessCheck reports whether the node store answers
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := rt.health.Ping(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			common.RespondJSON(w, rt.logger, http.StatusServiceUnavailable,
				common.StatusResponse{Status: "not ready", Error: "node store unavailable"})
			return
		}
	}

	common.RespondJSON(w, rt.logger, http.StatusOK, common.StatusResponse{Status: "ready"})
}
