// Package handlers provides HTTP handlers for tail-risk queries.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/portfolio"
	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/internal/modules/universe"
)

// Handler handles tail-risk HTTP requests
type Handler struct {
	historyDB *universe.HistoryDB
	analyzer  *risk.Analyzer
	positions *portfolio.Service
	log       zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(historyDB *universe.HistoryDB, analyzer *risk.Analyzer, positions *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		historyDB: historyDB,
		analyzer:  analyzer,
		positions: positions,
		log:       log.With().Str("handler", "risk").Logger(),
	}
}

type measuresRequest struct {
	Symbols    []string           `json:"symbols"`
	Weights    map[string]float64 `json:"weights"`
	Confidence float64            `json:"confidence"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
}

// HandleMeasures handles POST /api/risk/measures
func (h *Handler) HandleMeasures(w http.ResponseWriter, r *http.Request) {
	var req measuresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	params, err := risk.NewParams(req.Confidence)
	if err != nil {
		h.writeError(w, err)
		return
	}

	prices, err := h.historyDB.GetPriceTable(req.Symbols, req.Start, req.End)
	if err != nil {
		h.writeError(w, err)
		return
	}

	measures, err := h.analyzer.Measure(prices.Returns(), req.Weights, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"var_pct":    measures.VaR,
			"cvar_pct":   measures.CVaR,
			"confidence": params.Confidence,
			"method":     "historical",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleContributions handles POST /api/risk/contributions
func (h *Handler) HandleContributions(w http.ResponseWriter, r *http.Request) {
	var req measuresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	params, err := risk.NewParams(req.Confidence)
	if err != nil {
		h.writeError(w, err)
		return
	}

	prices, err := h.historyDB.GetPriceTable(req.Symbols, req.Start, req.End)
	if err != nil {
		h.writeError(w, err)
		return
	}

	contributions, err := h.analyzer.Contributions(prices.Returns(), req.Weights, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	total := 0.0
	for _, c := range contributions {
		total += c
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"contributions": contributions,
			"total_cvar":    total,
			"confidence":    params.Confidence,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

type simulateRequest struct {
	Symbols []string           `json:"symbols"`
	Weights map[string]float64 `json:"weights"`
	Days    int                `json:"days"`
	Paths   int                `json:"paths"`
	Seed    uint64             `json:"seed"`
	Start   string             `json:"start"`
	End     string             `json:"end"`
}

// HandleSimulate handles POST /api/risk/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Days <= 0 || req.Paths <= 0 {
		http.Error(w, "days and paths must be positive", http.StatusBadRequest)
		return
	}

	prices, err := h.historyDB.GetPriceTable(req.Symbols, req.Start, req.End)
	if err != nil {
		h.writeError(w, err)
		return
	}

	paths, err := h.analyzer.SimulatePaths(prices.Returns(), req.Weights, req.Days, req.Paths, req.Seed)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"paths": paths,
			"days":  req.Days,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

type positionRiskRequest struct {
	Shares     map[string]float64 `json:"shares"`
	Confidence float64            `json:"confidence"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
}

// HandlePositionRisk handles POST /api/risk/positions
func (h *Handler) HandlePositionRisk(w http.ResponseWriter, r *http.Request) {
	var req positionRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	params, err := risk.NewParams(req.Confidence)
	if err != nil {
		h.writeError(w, err)
		return
	}

	symbols := make([]string, 0, len(req.Shares))
	for symbol := range req.Shares {
		symbols = append(symbols, symbol)
	}

	prices, err := h.historyDB.GetPriceTable(symbols, req.Start, req.End)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.positions.Risk(prices, req.Shares, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeError maps domain errors to HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if domain.IsValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.log.Error().Err(err).Msg("Risk request failed")
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
