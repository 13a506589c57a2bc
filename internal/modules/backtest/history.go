package backtest

// History is the aligned value table produced by one simulation run: one
// row per date, one value series per strategy, all sharing the same
// rebalance calendar. It accumulates during the run and is immutable once
// the simulation returns it.
type History struct {
	RunID      string               `json:"run_id"`
	Dates      []string             `json:"dates"`
	Strategies []string             `json:"strategies"`
	Values     map[string][]float64 `json:"values"`
}

func newHistory(runID string, strategies []string, capacity int) *History {
	values := make(map[string][]float64, len(strategies))
	for _, name := range strategies {
		values[name] = make([]float64, 0, capacity)
	}
	return &History{
		RunID:      runID,
		Strategies: strategies,
		Dates:      make([]string, 0, capacity),
		Values:     values,
	}
}

// append records one date's value per strategy. The engine is the single
// writer; rows are never restated.
func (h *History) append(date string, values map[string]float64) {
	h.Dates = append(h.Dates, date)
	for _, name := range h.Strategies {
		h.Values[name] = append(h.Values[name], values[name])
	}
}

// Series returns one strategy's value path, nil if unknown.
func (h *History) Series(strategy string) []float64 {
	return h.Values[strategy]
}

// Final returns one strategy's last portfolio value, 0 if unknown or empty.
func (h *History) Final(strategy string) float64 {
	series := h.Values[strategy]
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
