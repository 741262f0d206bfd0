// Package rest exposes the idea engine over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"ideabox/application/commands/bus"
	"ideabox/application/ports"
	querybus "ideabox/application/queries/bus"
	"ideabox/infrastructure/config"
	"ideabox/interfaces/http/rest/handlers"
	"ideabox/interfaces/http/rest/middleware"
	"ideabox/pkg/auth"
	pkgerrors "ideabox/pkg/errors"
	"ideabox/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	validator  *auth.JWTValidator
	cfg        *config.Config
	logger     *zap.Logger

	roles     ports.RoleDirectory
	limiter   auth.RateLimiter
	tracer    *observability.Tracer
	metrics   http.Handler
	readiness map[string]ReadinessCheck
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	validator *auth.JWTValidator,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		validator:  validator,
		cfg:        cfg,
		logger:     logger,
		readiness:  make(map[string]ReadinessCheck),
	}
}

// WithRoleDirectory unions directory roles into every actor.
func (rt *Router) WithRoleDirectory(roles ports.RoleDirectory) *Router {
	rt.roles = roles
	return rt
}

// WithRateLimiter throttles mutating API calls.
func (rt *Router) WithRateLimiter(limiter auth.RateLimiter) *Router {
	rt.limiter = limiter
	return rt
}

// WithTracer wraps every request in an X-Ray segment.
func (rt *Router) WithTracer(tracer *observability.Tracer) *Router {
	rt.tracer = tracer
	return rt
}

// WithMetricsHandler serves h on /metrics.
func (rt *Router) WithMetricsHandler(h http.Handler) *Router {
	rt.metrics = h
	return rt
}

// WithReadinessCheck adds a named dependency to /ready.
func (rt *Router) WithReadinessCheck(name string, check ReadinessCheck) *Router {
	rt.readiness[name] = check
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	errs := pkgerrors.NewErrorHandler(rt.logger, !rt.cfg.IsProduction())
	router := chi.NewRouter()
	router.NotFound(errs.NotFound)
	router.MethodNotAllowed(errs.MethodNotAllowed)

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errs.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.tracer != nil {
		router.Use(rt.tracer.Middleware)
	}
	if rt.cfg.CORS.Enabled {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   splitOrigins(rt.cfg.CORS.AllowedOrigins),
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           rt.cfg.CORS.MaxAge,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics)
	}

	ideaHandler := handlers.NewIdeaHandler(rt.commandBus, rt.queryBus, errs, rt.logger)
	choiceHandler := handlers.NewStatusChoiceHandler(rt.commandBus, rt.queryBus, errs)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.roles, errs, rt.logger))
		if rt.limiter != nil {
			r.Use(middleware.RateLimit(rt.limiter, rt.cfg.RateLimit.RequestsPerMinute, errs, rt.logger))
		}

		r.Route("/ideas", func(r chi.Router) {
			r.Get("/", ideaHandler.ListIdeas)
			r.Post("/", ideaHandler.CreateIdea)
			r.Post("/status", ideaHandler.BulkStatusUpdate)

			r.Route("/{ideaID}", func(r chi.Router) {
				r.Get("/", ideaHandler.GetIdea)
				r.Patch("/", ideaHandler.UpdateIdea)
				r.Delete("/", ideaHandler.RemoveIdea)
				r.Patch("/vote", ideaHandler.Vote)
				r.Patch("/unvote", ideaHandler.Unvote)
				r.Post("/comments", ideaHandler.AddComment)
				r.Delete("/comments/{commentID}", ideaHandler.RemoveComment)
				r.Get("/history", ideaHandler.History)
			})
		})

		r.Route("/status-choices", func(r chi.Router) {
			r.Get("/", choiceHandler.List)
			r.Post("/", choiceHandler.Create)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck runs every registered dependency check.
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(rt.readiness))
	for name := range rt.readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := rt.readiness[name](ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": checks})
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
