package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers universe module routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/universe", func(r chi.Router) {
		r.Post("/prices", h.HandleSavePrices)
		r.Get("/prices/{symbol}", h.HandleGetPrices)
	})
}
