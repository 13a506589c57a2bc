package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers optimization module routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimization", func(r chi.Router) {
		r.Post("/solve", h.HandleOptimize)
		r.Get("/objectives", h.HandleObjectives)
	})
}
