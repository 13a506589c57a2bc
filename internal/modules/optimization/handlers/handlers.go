// Package handlers provides HTTP handlers for portfolio optimization.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/optimization"
	"github.com/aristath/tailrisk/internal/modules/universe"
)

// Handler handles optimization HTTP requests
type Handler struct {
	historyDB *universe.HistoryDB
	optimizer *optimization.Optimizer
	log       zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(historyDB *universe.HistoryDB, optimizer *optimization.Optimizer, log zerolog.Logger) *Handler {
	return &Handler{
		historyDB: historyDB,
		optimizer: optimizer,
		log:       log.With().Str("handler", "optimization").Logger(),
	}
}

type optimizeRequest struct {
	Symbols         []string   `json:"symbols"`
	Objective       string     `json:"objective"`
	RiskFree        float64    `json:"risk_free"`
	BenchmarkSymbol string     `json:"benchmark_symbol"`
	Confidence      float64    `json:"confidence"`
	Bounds          [2]float64 `json:"bounds"`
	Start           string     `json:"start"`
	End             string     `json:"end"`
}

// HandleOptimize handles POST /api/optimization/solve
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	objective, err := optimization.ParseObjective(req.Objective)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	prices, err := h.historyDB.GetPriceTable(req.Symbols, req.Start, req.End)
	if err != nil {
		h.writeError(w, err)
		return
	}

	optReq := optimization.Request{
		Returns:    prices.Returns(),
		Objective:  objective,
		RiskFree:   req.RiskFree,
		Confidence: req.Confidence,
		Bounds:     req.Bounds,
	}

	if req.BenchmarkSymbol != "" {
		benchPrices, err := h.historyDB.GetPriceTable([]string{req.BenchmarkSymbol}, req.Start, req.End)
		if err != nil {
			h.writeError(w, err)
			return
		}
		bench := benchPrices.Returns()
		series := make([]float64, bench.NumObs())
		for t := 0; t < bench.NumObs(); t++ {
			series[t] = bench.Row(t)[0]
		}
		optReq.Benchmark = series
	}

	result, err := h.optimizer.Optimize(optReq)
	if err != nil && !domain.IsConvergence(err) {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"weights":   result.Weights,
			"objective": result.Objective,
			"converged": result.Converged,
			"status":    result.Status,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleObjectives handles GET /api/optimization/objectives
func (h *Handler) HandleObjectives(w http.ResponseWriter, r *http.Request) {
	objectives := optimization.AllObjectives()
	names := make([]string, len(objectives))
	for i, o := range objectives {
		names[i] = o.String()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": names,
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
	h.log.Error().Err(err).Msg("Optimization request failed")
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
