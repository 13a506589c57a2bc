package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers risk module routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/measures", h.HandleMeasures)
		r.Post("/contributions", h.HandleContributions)
		r.Post("/simulate", h.HandleSimulate)
		r.Post("/positions", h.HandlePositionRisk)
	})
}
