package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/rallylens/internal/api/handler"
	mw "github.com/kiranshivaraju/rallylens/internal/api/middleware"
	"github.com/kiranshivaraju/rallylens/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth *mw.Auth
	// RateLimit is optional; it needs a shared counter store.
	RateLimit *mw.RateLimit
	// Observer is optional.
	Observer mw.HTTPObserver

	Controller handler.Controller
	Library    handler.Library
	Health     handler.HealthChecker
	// Cache is reported by the health check when set.
	Cache handler.Pinger
	Spool handler.Spool

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	if deps.Observer != nil {
		r.Use(mw.Metrics(deps.Observer))
	}
	r.Use(mw.Recovery)

	// Public endpoints
	r.Get("/api/v1/health", orNotImplemented(healthHandler(deps)))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Protected routes
	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Authenticate)
		}
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		var (
			selectVideo, submit, dashboard, toggle http.HandlerFunc
			listVideos, deleteVideo                http.HandlerFunc
		)
		if deps.Controller != nil {
			selectVideo = handler.NewSelectVideoHandler(deps.Controller, deps.Spool)
			submit = handler.NewSubmitHandler(deps.Controller)
			dashboard = handler.NewDashboardHandler(deps.Controller)
			toggle = handler.NewToggleRallyHandler(deps.Controller)
		}
		if deps.Library != nil {
			listVideos = handler.NewListVideosHandler(deps.Library)
			deleteVideo = handler.NewDeleteVideoHandler(deps.Library)
		}

		r.Post("/api/v1/video", orNotImplemented(selectVideo))
		r.Post("/api/v1/analysis", orNotImplemented(submit))
		r.Get("/api/v1/analysis", orNotImplemented(dashboard))
		r.Post("/api/v1/rallies/{index}/toggle", orNotImplemented(toggle))
		r.Get("/api/v1/videos", orNotImplemented(listVideos))
		r.Delete("/api/v1/videos/{videoID}", orNotImplemented(deleteVideo))
	})

	return r
}

func healthHandler(deps Dependencies) http.HandlerFunc {
	if deps.Health == nil {
		return nil
	}
	return handler.NewHealthHandler(deps.Health, deps.Cache)
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
