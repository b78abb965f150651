// Package api builds the HTTP surface of the brand visibility service.
package api

import (
	"net/http"

	mw "github.com/brandlens/brandlens/internal/api/middleware"
	"github.com/brandlens/brandlens/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth        *mw.Auth
	RateLimit   *mw.RateLimit
	MetricsRate *mw.RateLimit

	HealthHandler http.HandlerFunc

	CreateBrandHandler http.HandlerFunc
	ListBrandsHandler  http.HandlerFunc
	GetBrandHandler    http.HandlerFunc

	CollectHandler        http.HandlerFunc
	MetricsHandler        http.HandlerFunc
	MetricsHistoryHandler http.HandlerFunc
	ScoreHandler          http.HandlerFunc

	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/brands", orNotImplemented(deps.CreateBrandHandler))
		r.Get("/api/v1/brands", orNotImplemented(deps.ListBrandsHandler))
		r.Get("/api/v1/brands/{brandID}", orNotImplemented(deps.GetBrandHandler))

		r.Post("/api/v1/brands/{brandID}/collect", orNotImplemented(deps.CollectHandler))
		r.Get("/api/v1/brands/{brandID}/score", orNotImplemented(deps.ScoreHandler))
		r.Get("/api/v1/brands/{brandID}/metrics/history", orNotImplemented(deps.MetricsHistoryHandler))

		// Metrics computation is the expensive path; it carries its own
		// tighter per-key limit on top of the global one.
		r.Group(func(r chi.Router) {
			r.Use(deps.MetricsRate.Limit)
			r.Get("/api/v1/brands/{brandID}/metrics", orNotImplemented(deps.MetricsHandler))
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("admin"))

			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
