package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/orgward/orgward/internal/auth"
	depthttp "github.com/orgward/orgward/internal/departments/http"
	"github.com/orgward/orgward/internal/observability"
	"github.com/orgward/orgward/internal/orgunits"
	"github.com/orgward/orgward/internal/permissions"
	"github.com/orgward/orgward/internal/roles"
	"github.com/orgward/orgward/internal/shared"
	"github.com/orgward/orgward/internal/users"
	"github.com/orgward/orgward/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler        *auth.Handler
	DepartmentsHandler *depthttp.Handler
	RolesHandler       *roles.Handler
	UsersHandler       *users.Handler
	OrgUnitsHandler    *orgunits.Handler
	PermissionsHandler *permissions.Handler
	JobsHandler        *jobs.Handler

	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthHandler(params))

	r.Route("/auth", func(r chi.Router) {
		r.Use(LoginRateLimiter(params.Config))
		params.AuthHandler.MountRoutes(r)
	})
	r.Route("/api", func(r chi.Router) {
		if params.DepartmentsHandler != nil {
			r.Route("/departments", params.DepartmentsHandler.MountRoutes)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.OrgUnitsHandler != nil {
			r.Route("/orgunits", params.OrgUnitsHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// healthHandler reports readiness of the backing stores.
func healthHandler(params RouterParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if params.Pool != nil {
			if err := params.Pool.Ping(ctx); err != nil {
				params.Logger.Error("healthz postgres", slog.Any("error", err))
				writeHealth(w, http.StatusServiceUnavailable, "postgres unavailable")
				return
			}
		}
		if params.Redis != nil {
			if err := params.Redis.Ping(ctx).Err(); err != nil {
				params.Logger.Error("healthz redis", slog.Any("error", err))
				writeHealth(w, http.StatusServiceUnavailable, "redis unavailable")
				return
			}
		}
		writeHealth(w, http.StatusOK, "ok")
	}
}

func writeHealth(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}
