package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(tracingMiddleware)

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", promhttp.Handler())

	// Session memory API, auth applied when configured.
	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth))
		}
		r.Route("/sessions/{id}/memory", func(r chi.Router) {
			r.Get("/", g.handleReadMemory())
			r.Post("/", g.handleAppendMemory())
			r.Delete("/", g.handleDeleteMemory())
			r.Delete("/last", g.handleDeleteLast())
			r.Get("/watch", g.handleWatch())
		})
	})

	return r
}
