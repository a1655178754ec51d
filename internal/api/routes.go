package api

import (
	"net/http"

	"genweb/internal/logs"
)

func RegisterRoutes(mux *http.ServeMux, h *Handler, logger *logs.Logger) http.Handler {
	// Admin APIs
	mux.HandleFunc(AdminPrefix+"cache", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ListCache(w, r)
	})
	mux.HandleFunc(AdminPrefix+"cache/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.InvalidateCache(w, r)
	})

	// Observability APIs
	mux.HandleFunc(AdminPrefix+"metrics", h.GetMetrics)
	mux.HandleFunc(AdminPrefix+"health", h.GetHealth)

	// reserved, never generated
	mux.Handle(AdminPrefix, http.NotFoundHandler())

	// Everything else is site content
	mux.HandleFunc("/", h.ServeContent)

	// Middlewares
	return Chain(
		mux,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	)
}
