// Package handlers provides HTTP handlers for price history management.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/universe"
)

// Handler handles price history HTTP requests
type Handler struct {
	historyDB *universe.HistoryDB
	log       zerolog.Logger
}

// NewHandler creates a new universe handler
func NewHandler(historyDB *universe.HistoryDB, log zerolog.Logger) *Handler {
	return &Handler{
		historyDB: historyDB,
		log:       log.With().Str("handler", "universe").Logger(),
	}
}

type savePricesRequest struct {
	Symbol string                `json:"symbol"`
	Prices []universe.DailyPrice `json:"prices"`
}

// HandleSavePrices handles POST /api/universe/prices
func (h *Handler) HandleSavePrices(w http.ResponseWriter, r *http.Request) {
	var req savePricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	if err := h.historyDB.SaveDailyPrices(req.Symbol, req.Prices); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": req.Symbol,
			"saved":  len(req.Prices),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetPrices handles GET /api/universe/prices/{symbol}
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	table, err := h.historyDB.GetPriceTable([]string{symbol}, start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}

	dates := table.Dates()
	prices := make([]universe.DailyPrice, len(dates))
	column := table.Column(symbol)
	for i, date := range dates {
		prices[i] = universe.DailyPrice{Date: date, Close: column[i]}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": symbol,
			"prices": prices,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if domain.IsValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.log.Error().Err(err).Msg("Universe request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
