// Package backtest simulates the historical performance of portfolio
// optimization strategies over rolling rebalance cycles.
package backtest

import (
	"github.com/aristath/tailrisk/internal/modules/optimization"
	"github.com/aristath/tailrisk/internal/timeseries"
)

// WeightSolver produces the target weights for one strategy from a lookback
// window. The engine re-invokes it at every rebalance boundary.
type WeightSolver interface {
	Name() string
	Solve(window *timeseries.ReturnMatrix, benchmark []float64) (optimization.Result, error)
}

// objectiveStrategy adapts one optimizer objective to the WeightSolver
// contract.
type objectiveStrategy struct {
	optimizer  *optimization.Optimizer
	objective  optimization.Objective
	riskFree   float64
	confidence float64
	bounds     [2]float64
}

func (s *objectiveStrategy) Name() string {
	return s.objective.String()
}

func (s *objectiveStrategy) Solve(window *timeseries.ReturnMatrix, benchmark []float64) (optimization.Result, error) {
	return s.optimizer.Optimize(optimization.Request{
		Returns:    window,
		Objective:  s.objective,
		RiskFree:   s.riskFree,
		Benchmark:  benchmark,
		Confidence: s.confidence,
		Bounds:     s.bounds,
	})
}

// StandardStrategies builds one WeightSolver per supported objective, all
// sharing the optimizer, risk-free rate, confidence level and bounds.
func StandardStrategies(optimizer *optimization.Optimizer, riskFree, confidence float64, bounds [2]float64) []WeightSolver {
	objectives := optimization.AllObjectives()
	strategies := make([]WeightSolver, 0, len(objectives))
	for _, objective := range objectives {
		strategies = append(strategies, &objectiveStrategy{
			optimizer:  optimizer,
			objective:  objective,
			riskFree:   riskFree,
			confidence: confidence,
			bounds:     bounds,
		})
	}
	return strategies
}
