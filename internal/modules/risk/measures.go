// Package risk computes empirical tail-risk measures over weighted return
// series: Value at Risk, Conditional Value at Risk, per-asset CVaR
// contributions, and correlated Monte-Carlo scenario paths.
package risk

import (
	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/timeseries"
	"github.com/aristath/tailrisk/pkg/formulas"
)

// Analyzer computes historical risk measures for weighted portfolios.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a new risk analyzer.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		log: log.With().Str("component", "risk_analyzer").Logger(),
	}
}

// Measures holds VaR and CVaR as positive loss fractions.
type Measures struct {
	VaR  float64 `json:"var"`
	CVaR float64 `json:"cvar"`
}

// Measure computes the portfolio's historical VaR and CVaR.
//
// The portfolio return series is p_t = sum_i w_i * r_{i,t}. VaR is the
// negated empirical quantile of p at level (100-conf)/100, computed with
// linear interpolation between closest ranks. CVaR is the negated mean of
// every p_t at or below that quantile, so CVaR >= VaR always holds for a
// non-degenerate series. Both are fractions of portfolio value; scaling to
// cash belongs to the portfolio module's wrappers.
func (a *Analyzer) Measure(rm *timeseries.ReturnMatrix, weights map[string]float64, params Params) (Measures, error) {
	if err := validateWeights(weights); err != nil {
		return Measures{}, err
	}

	series, err := rm.PortfolioReturns(weights)
	if err != nil {
		return Measures{}, err
	}

	quantile := formulas.Percentile(series, 100-params.Confidence)
	tailMean, ok := formulas.TailMean(series, quantile)
	if !ok {
		// The quantile is at least the sample minimum, so the tail always
		// contains at least one observation.
		tailMean = quantile
	}

	m := Measures{VaR: -quantile, CVaR: -tailMean}

	a.log.Debug().
		Float64("confidence", params.Confidence).
		Int("observations", rm.NumObs()).
		Float64("var", m.VaR).
		Float64("cvar", m.CVaR).
		Msg("Computed historical risk measures")

	return m, nil
}

// VaR computes only the portfolio's historical Value at Risk.
func (a *Analyzer) VaR(rm *timeseries.ReturnMatrix, weights map[string]float64, params Params) (float64, error) {
	m, err := a.Measure(rm, weights, params)
	if err != nil {
		return 0, err
	}
	return m.VaR, nil
}

// CVaR computes only the portfolio's historical Conditional Value at Risk.
func (a *Analyzer) CVaR(rm *timeseries.ReturnMatrix, weights map[string]float64, params Params) (float64, error) {
	m, err := a.Measure(rm, weights, params)
	if err != nil {
		return 0, err
	}
	return m.CVaR, nil
}

// Contributions computes each asset's share of the portfolio CVaR.
//
// The tail set is the observations where the portfolio return is at or below
// its empirical quantile. An asset's contribution is its weight times its
// mean return conditioned on tail membership, negated to express a loss.
// Contributions sum to the portfolio CVaR up to floating-point error.
func (a *Analyzer) Contributions(rm *timeseries.ReturnMatrix, weights map[string]float64, params Params) (map[string]float64, error) {
	if err := validateWeights(weights); err != nil {
		return nil, err
	}

	series, err := rm.PortfolioReturns(weights)
	if err != nil {
		return nil, err
	}

	quantile := formulas.Percentile(series, 100-params.Confidence)
	tail := formulas.TailMembership(series, quantile)

	tailCount := 0
	for _, in := range tail {
		if in {
			tailCount++
		}
	}

	contributions := make(map[string]float64, len(weights))
	for _, asset := range rm.Assets() {
		column := rm.Column(asset)
		sum := 0.0
		for t, in := range tail {
			if in {
				sum += column[t]
			}
		}
		contributions[asset] = -weights[asset] * sum / float64(tailCount)
	}

	return contributions, nil
}
