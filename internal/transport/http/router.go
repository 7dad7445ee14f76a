package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"learnhub/internal/auth/gate"
	"learnhub/internal/platform/ratelimit"
	"learnhub/pkg/domain"
	"learnhub/pkg/platform/httputil"
	"learnhub/pkg/platform/middleware/metadata"
	"learnhub/pkg/platform/middleware/request"
	"learnhub/pkg/platform/middleware/requesttime"
)

const requestTimeout = 30 * time.Second

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries everything the router wires around the handler.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	Gate           *gate.Gate
	Limiter        *ratelimit.Limiter
	Metrics        http.Handler
	HealthChecks   map[string]HealthCheck
	Logger         *slog.Logger
}

// NewRouter mounts the API under cfg.APIPrefix. Public auth endpoints are
// rate limited; profile endpoints require a live session.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metricsHandler := cfg.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(request.RequestID)
	r.Use(request.Recoverer(logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", refreshTokenHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", healthHandler(cfg.HealthChecks))
	r.Handle("/metrics", metricsHandler)

	r.Route(cfg.APIPrefix, func(api chi.Router) {
		api.Use(middleware.Timeout(requestTimeout))

		api.Group(func(public chi.Router) {
			public.With(limit(cfg.Limiter, "registration")).Post("/registration", h.handleRegistration)
			public.With(limit(cfg.Limiter, "activate-user")).Post("/activate-user", h.handleActivateUser)
			public.With(limit(cfg.Limiter, "login")).Post("/login", h.handleLogin)
			public.With(limit(cfg.Limiter, "social-auth")).Post("/social-auth", h.handleSocialAuth)
			public.Get("/refreshtoken", h.handleRefresh)
		})

		api.Group(func(authed chi.Router) {
			authed.Use(cfg.Gate.RequireAuth)
			authed.Get("/logout", h.handleLogout)
			authed.Get("/me", h.handleMe)
			authed.Put("/update-user-info", h.handleUpdateInfo)
			authed.Put("/update-user-password", h.handleUpdatePassword)
			authed.Put("/update-user-avatar", h.handleUpdateAvatar)
			authed.With(cfg.Gate.RequireRole(domain.RoleAdmin)).Get("/get-users", h.handleListAccounts)
		})
	})

	return r
}

func limit(l *ratelimit.Limiter, route string) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware(route)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
