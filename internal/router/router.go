package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-resell-backoffice/internal/config"
	"go-resell-backoffice/internal/handler"
	"go-resell-backoffice/internal/middleware"
	"go-resell-backoffice/internal/model"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Trash   *handler.TrashHandler
	Tables  *handler.TableHandler
	Audit   *handler.AuditHandler
	Events  http.HandlerFunc
	Metrics http.Handler
}

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

var (
	editors  = []string{model.RoleCreator, model.RoleAdmin, model.RoleModerator}
	purgers  = []string{model.RoleCreator, model.RoleAdmin}
	auditors = []string{model.RoleCreator, model.RoleAdmin}
)

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		// The websocket stays outside the timeout group: http.TimeoutHandler
		// cannot hijack connections.
		if h.Events != nil {
			api.With(authMiddleware.RequireAuth).Get("/events", h.Events)
		}

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/login", h.Auth.Login)
				auth.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(purgers...)).Post("/register", h.Auth.Register)
				auth.Post("/refresh", h.Auth.Refresh)
				auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
				auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
			})

			api.With(authMiddleware.RequireAuth).Get("/trash", h.Trash.List)
			api.With(authMiddleware.RequireAuth).Get("/trash/origins", h.Trash.Origins)
			api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(editors...)).Post("/trash/{id}/restore", h.Trash.Restore)
			api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(purgers...)).Delete("/trash/{id}", h.Trash.PurgeOne)
			api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(purgers...)).Delete("/trash", h.Trash.PurgeAll)

			api.With(authMiddleware.RequireAuth).Get("/tables/{table}", h.Tables.List)
			api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(editors...)).Post("/tables/{table}", h.Tables.Create)
			api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(editors...)).Delete("/tables/{table}/{id}", h.Tables.Delete)

			api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(auditors...)).Get("/audit", h.Audit.List)
		})
	})

	return r
}
