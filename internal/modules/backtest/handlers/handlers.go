// Package handlers provides HTTP handlers for the backtest engine.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/backtest"
	"github.com/aristath/tailrisk/internal/modules/optimization"
	"github.com/aristath/tailrisk/internal/modules/universe"
)

// Handler handles backtest HTTP requests
type Handler struct {
	historyDB *universe.HistoryDB
	engine    *backtest.Engine
	optimizer *optimization.Optimizer
	log       zerolog.Logger
}

// NewHandler creates a new backtest handler
func NewHandler(historyDB *universe.HistoryDB, engine *backtest.Engine, optimizer *optimization.Optimizer, log zerolog.Logger) *Handler {
	return &Handler{
		historyDB: historyDB,
		engine:    engine,
		optimizer: optimizer,
		log:       log.With().Str("handler", "backtest").Logger(),
	}
}

type runRequest struct {
	Symbols         []string   `json:"symbols"`
	BenchmarkSymbol string     `json:"benchmark_symbol"`
	InitialCapital  float64    `json:"initial_capital"`
	RebalanceMonths int        `json:"rebalance_months"`
	RiskFree        float64    `json:"risk_free"`
	Confidence      float64    `json:"confidence"`
	Bounds          [2]float64 `json:"bounds"`
	Fallback        string     `json:"fallback"`
	Start           string     `json:"start"`
	End             string     `json:"end"`
}

// HandleRun handles POST /api/backtest/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	fallback, err := backtest.ParseFallbackPolicy(req.Fallback)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	prices, err := h.historyDB.GetPriceTable(req.Symbols, req.Start, req.End)
	if err != nil {
		h.writeError(w, err)
		return
	}

	cfg := backtest.Config{
		Prices:          prices,
		InitialCapital:  req.InitialCapital,
		RebalanceMonths: req.RebalanceMonths,
		Fallback:        fallback,
	}

	if req.BenchmarkSymbol != "" {
		benchmark, err := h.historyDB.GetPriceTable([]string{req.BenchmarkSymbol}, req.Start, req.End)
		if err != nil {
			h.writeError(w, err)
			return
		}
		cfg.BenchmarkPrices = benchmark
	}

	strategies := backtest.StandardStrategies(h.optimizer, req.RiskFree, req.Confidence, req.Bounds)

	started := time.Now()
	history, err := h.engine.Run(cfg, strategies)
	if err != nil {
		h.writeError(w, err)
		return
	}

	finals := make(map[string]float64, len(history.Strategies))
	for _, name := range history.Strategies {
		finals[name] = history.Final(name)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id":       history.RunID,
			"history":      history,
			"final_values": finals,
		},
		"metadata": map[string]interface{}{
			"timestamp":   time.Now().Format(time.RFC3339),
			"duration_ms": time.Since(started).Milliseconds(),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if domain.IsValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.log.Error().Err(err).Msg("Backtest request failed")
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
