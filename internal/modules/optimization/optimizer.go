package optimization

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/pkg/formulas"
)

// Optimizer solves constrained weight problems over a shared numerical
// harness. The six objectives differ only in the closure handed to the
// solver and their auxiliary inputs.
type Optimizer struct {
	log zerolog.Logger
}

// NewOptimizer creates a new portfolio optimizer.
func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{
		log: log.With().Str("component", "optimizer").Logger(),
	}
}

// Optimize solves the request's objective subject to sum(w) = 1 and the
// per-asset box bounds.
//
// On convergence failure the returned Result carries the last feasible
// iterate with Converged false, and the error wraps a
// domain.ConvergenceError so callers can apply their fallback policy.
func (o *Optimizer) Optimize(req Request) (Result, error) {
	s, err := o.prepare(req)
	if err != nil {
		return Result{}, err
	}

	bounds := req.bounds()
	var spec problemSpec
	switch req.Objective {
	case MinVariance:
		spec = minVarianceSpec(s, bounds)
	case MaxSharpe:
		spec = maxSharpeSpec(s, req.RiskFree/formulas.TradingDaysPerYear, bounds)
	case MinSemivariance:
		spec = minSemivarianceSpec(s, req.Benchmark, bounds)
	case MaxOmega:
		spec = maxOmegaSpec(s, req.Benchmark, bounds)
	case MinCVaR:
		spec = minCVaRSpec(s, confidenceOrDefault(req).Alpha(), bounds)
	case MinCVaRConcentration:
		spec = mccSpec(s, confidenceOrDefault(req).Confidence, bounds)
	default:
		return Result{}, domain.NewValidationError("objective", fmt.Sprintf("unknown objective %d", req.Objective))
	}

	point := solve(spec)

	weights := make(map[string]float64, len(s.assets))
	for i, asset := range s.assets {
		weights[asset] = point.x[i]
	}

	result := Result{
		Weights:   weights,
		Objective: naturalObjective(req.Objective, point.value),
		Converged: point.converged,
		Status:    point.status,
	}

	if !point.converged {
		o.log.Warn().
			Str("objective", req.Objective.String()).
			Str("status", point.status).
			Msg("Optimization did not converge")
		return result, &domain.ConvergenceError{Status: point.status, LastIterate: point.x}
	}

	o.log.Debug().
		Str("objective", req.Objective.String()).
		Float64("value", result.Objective).
		Msg("Optimization converged")

	return result, nil
}

// prepare validates the request and builds the sample view of its return
// matrix.
func (o *Optimizer) prepare(req Request) (*sample, error) {
	if req.Returns == nil {
		return nil, domain.NewValidationError("returns", "return matrix is required")
	}
	if req.Returns.NumObs() < 2 {
		return nil, domain.NewValidationError("returns",
			fmt.Sprintf("need at least 2 observations, got %d", req.Returns.NumObs()))
	}

	switch req.Objective {
	case MinSemivariance, MaxOmega:
		if len(req.Benchmark) != req.Returns.NumObs() {
			return nil, domain.NewValidationError("benchmark",
				fmt.Sprintf("benchmark length %d does not match %d observations",
					len(req.Benchmark), req.Returns.NumObs()))
		}
	case MinCVaR, MinCVaRConcentration:
		if _, err := risk.NewParams(confidenceOrDefault(req).Confidence); err != nil {
			return nil, err
		}
	}

	lower, upper := req.bounds()[0], req.bounds()[1]
	if lower >= upper {
		return nil, domain.NewValidationError("bounds",
			fmt.Sprintf("lower bound %v must be below upper bound %v", lower, upper))
	}

	assets := req.Returns.Assets()
	mu := make([]float64, len(assets))
	for i, asset := range assets {
		mu[i] = formulas.Mean(req.Returns.Column(asset))
	}

	s := &sample{
		assets: assets,
		rows:   req.Returns.Matrix(),
		mu:     mu,
	}
	if req.Objective == MinVariance || req.Objective == MaxSharpe {
		s.cov = risk.Covariance(req.Returns)
	}
	return s, nil
}

func confidenceOrDefault(req Request) risk.Params {
	confidence := req.Confidence
	if confidence == 0 {
		confidence = DefaultConfidence
	}
	return risk.Params{Confidence: confidence}
}

// naturalObjective converts the minimized value back into the objective's
// natural units (the ratio itself for the maximization objectives).
func naturalObjective(objective Objective, minimized float64) float64 {
	switch objective {
	case MaxSharpe, MaxOmega:
		return -minimized
	}
	return minimized
}
