package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/rpac/rpac/internal/audit/http"
	"github.com/rpac/rpac/internal/auth"
	"github.com/rpac/rpac/internal/observability"
	"github.com/rpac/rpac/internal/platform/httpx"
	"github.com/rpac/rpac/internal/rbac"
	"github.com/rpac/rpac/internal/roles"
	"github.com/rpac/rpac/internal/users"
	"github.com/rpac/rpac/jobs"
	"github.com/rpac/rpac/web"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Responder          *httpx.Responder
	Gate               func(http.Handler) http.Handler
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	AuditHandler       *audithttp.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
	HealthChecks       map[string]HealthCheck
}

// NewRouter constructs the chi.Router with rpac defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:    params.Logger,
		Config:    params.Config,
		Responder: params.Responder,
		Metrics:   params.Metrics,
		Gate:      params.Gate,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		params.Responder.RespondError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		params.Responder.RespondError(w, r, errMethodNotAllowed)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "rpac API", "docs": "/docs"})
	})
	r.Get("/health", healthHandler(params.HealthChecks))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	mountDocs(r, params.Logger)

	api := func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			if params.AuthHandler != nil {
				params.AuthHandler.MountRoutes(r)
			}
			if params.UsersHandler != nil {
				params.UsersHandler.MountRoutes(r)
			}
		})
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	}
	if prefix := params.Config.APIPrefix; prefix != "" {
		r.Route(prefix, api)
	} else {
		r.Group(api)
	}

	return r
}

type healthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "healthy", Service: "rpac"}
		status := http.StatusOK
		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(ctx); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}
		httpx.JSON(w, status, resp)
	}
}

func mountDocs(r chi.Router, logger *slog.Logger) {
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Error("create static sub filesystem", slog.Any("error", err))
		return
	}
	serveFile := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			http.ServeFileFS(w, r, staticFS, name)
		}
	}
	r.Get("/openapi.json", serveFile("openapi.json"))
	r.Get("/docs", serveFile("docs.html"))
	r.Get("/redoc", serveFile("docs.html"))
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	r.Handle("/static/*", staticCacheHandler(fileServer))
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
