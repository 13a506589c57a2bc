// Package optimization solves constrained portfolio weight problems for six
// objectives over one shared nonlinear-programming harness.
package optimization

import (
	"fmt"

	"github.com/aristath/tailrisk/internal/timeseries"
)

// Objective selects which function the optimizer minimizes. Maximization
// objectives are restated internally as minimizing the negation.
type Objective int

const (
	MinVariance Objective = iota
	MaxSharpe
	MinSemivariance
	MaxOmega
	MinCVaR
	MinCVaRConcentration
)

var objectiveNames = map[Objective]string{
	MinVariance:          "min_variance",
	MaxSharpe:            "max_sharpe",
	MinSemivariance:      "min_semivariance",
	MaxOmega:             "max_omega",
	MinCVaR:              "min_cvar",
	MinCVaRConcentration: "min_cvar_concentration",
}

func (o Objective) String() string {
	if name, ok := objectiveNames[o]; ok {
		return name
	}
	return fmt.Sprintf("objective(%d)", int(o))
}

// ParseObjective maps an objective name to its enum value.
func ParseObjective(name string) (Objective, error) {
	for o, n := range objectiveNames {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown objective: %s", name)
}

// AllObjectives lists the six supported objectives in a stable order.
func AllObjectives() []Objective {
	return []Objective{
		MinVariance,
		MaxSharpe,
		MinSemivariance,
		MaxOmega,
		MinCVaR,
		MinCVaRConcentration,
	}
}

// DefaultConfidence is used by CVaR-family objectives when the request does
// not set one.
const DefaultConfidence = 95.0

// Request describes one optimization problem. Returns is always required;
// the auxiliary inputs depend on the objective: RiskFree for max Sharpe,
// Benchmark for semivariance and Omega, Confidence for the CVaR family.
type Request struct {
	Returns    *timeseries.ReturnMatrix
	Objective  Objective
	RiskFree   float64   // annualized, converted to daily internally
	Benchmark  []float64 // benchmark daily returns, one per observation
	Confidence float64   // percent, (0, 100); 0 means DefaultConfidence
	Bounds     [2]float64
}

// bounds returns the per-asset box bounds, defaulting to long-only [0, 1].
func (r Request) bounds() [2]float64 {
	if r.Bounds[0] == 0 && r.Bounds[1] == 0 {
		return [2]float64{0, 1}
	}
	return r.Bounds
}

// Result is the outcome of one optimizer invocation. It is owned by the
// caller and never mutated after return.
//
// Objective is reported in natural units: variance, Sharpe ratio,
// semivariance, Omega ratio, CVaR, or maximum CVaR contribution. When the
// solver did not converge, Weights holds the last feasible iterate and
// Converged is false; a degenerate vector is never silently substituted.
type Result struct {
	Weights   map[string]float64 `json:"weights"`
	Objective float64            `json:"objective"`
	Converged bool               `json:"converged"`
	Status    string             `json:"status"`
}

// EqualWeights builds the uniform weight vector over the given assets.
func EqualWeights(assets []string) map[string]float64 {
	weights := make(map[string]float64, len(assets))
	for _, asset := range assets {
		weights[asset] = 1.0 / float64(len(assets))
	}
	return weights
}
