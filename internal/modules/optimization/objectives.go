package optimization

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/tailrisk/pkg/formulas"
)

// sample is the prepared numeric view of a return matrix: observations as
// rows in asset order, per-asset means, and (for the variance-based
// objectives) the sample covariance. Everything here is a per-call value,
// never shared state.
type sample struct {
	assets []string
	rows   [][]float64
	mu     []float64
	cov    *mat.SymDense
}

// portfolioSeries computes p_t = sum_i w_i r_{i,t} for the first
// len(assets) entries of x.
func (s *sample) portfolioSeries(x []float64) []float64 {
	series := make([]float64, len(s.rows))
	for t, row := range s.rows {
		p := 0.0
		for i := range s.assets {
			p += x[i] * row[i]
		}
		series[t] = p
	}
	return series
}

// quadraticForm computes x' * cov * x over the asset variables.
func (s *sample) quadraticForm(x []float64) float64 {
	n := len(s.assets)
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			total += x[i] * x[j] * s.cov.At(i, j)
		}
	}
	return total
}

// minVarianceSpec minimizes w'Σw with its analytic gradient 2Σw.
func minVarianceSpec(s *sample, bounds [2]float64) problemSpec {
	n := len(s.assets)
	return problemSpec{
		objective: s.quadraticForm,
		gradient: func(grad, x []float64) {
			for i := 0; i < n; i++ {
				grad[i] = 0
				for j := 0; j < n; j++ {
					grad[i] += 2 * s.cov.At(i, j) * x[j]
				}
			}
		},
		initial: equalStart(n),
		bounds:  uniformBounds(n, bounds),
		sumVars: n,
		smooth:  true,
	}
}

// maxSharpeSpec minimizes the negated Sharpe ratio -(mu'w - rf)/sqrt(w'Σw),
// rf already converted to the return series' periodicity.
func maxSharpeSpec(s *sample, rfDaily float64, bounds [2]float64) problemSpec {
	n := len(s.assets)
	objective := func(x []float64) float64 {
		ret := 0.0
		for i := 0; i < n; i++ {
			ret += s.mu[i] * x[i]
		}
		sd := math.Sqrt(math.Max(s.quadraticForm(x), 1e-20))
		return -(ret - rfDaily) / sd
	}
	return problemSpec{
		objective: objective,
		gradient: func(grad, x []float64) {
			ret := 0.0
			for i := 0; i < n; i++ {
				ret += s.mu[i] * x[i]
			}
			variance := math.Max(s.quadraticForm(x), 1e-20)
			sd := math.Sqrt(variance)
			for i := 0; i < n; i++ {
				dVar := 0.0
				for j := 0; j < n; j++ {
					dVar += 2 * s.cov.At(i, j) * x[j]
				}
				grad[i] = -s.mu[i]/sd + (ret-rfDaily)*dVar/(2*sd*variance)
			}
		},
		initial: equalStart(n),
		bounds:  uniformBounds(n, bounds),
		sumVars: n,
		smooth:  true,
	}
}

// minSemivarianceSpec minimizes the mean squared downside of the portfolio
// relative to the benchmark: upside periods contribute nothing.
func minSemivarianceSpec(s *sample, benchmark []float64, bounds [2]float64) problemSpec {
	n := len(s.assets)
	objective := func(x []float64) float64 {
		series := s.portfolioSeries(x)
		total := 0.0
		for t, p := range series {
			if d := p - benchmark[t]; d < 0 {
				total += d * d
			}
		}
		return total / float64(len(series))
	}
	return problemSpec{
		objective: objective,
		gradient: func(grad, x []float64) {
			series := s.portfolioSeries(x)
			invT := 1.0 / float64(len(series))
			for i := 0; i < n; i++ {
				grad[i] = 0
			}
			for t, p := range series {
				if d := p - benchmark[t]; d < 0 {
					for i := 0; i < n; i++ {
						grad[i] += 2 * d * s.rows[t][i] * invT
					}
				}
			}
		},
		initial: equalStart(n),
		bounds:  uniformBounds(n, bounds),
		sumVars: n,
		smooth:  true,
	}
}

// maxOmegaSpec minimizes the negated Omega ratio: upside partial moment over
// downside partial moment of the benchmark-relative returns.
func maxOmegaSpec(s *sample, benchmark []float64, bounds [2]float64) problemSpec {
	n := len(s.assets)
	objective := func(x []float64) float64 {
		series := s.portfolioSeries(x)
		upside, downside := 0.0, 0.0
		for t, p := range series {
			d := p - benchmark[t]
			if d > 0 {
				upside += d
			} else {
				downside -= d
			}
		}
		return -upside / math.Max(downside, 1e-12)
	}
	return problemSpec{
		objective: objective,
		initial:   equalStart(n),
		bounds:    uniformBounds(n, bounds),
		sumVars:   n,
		smooth:    false,
	}
}

// minCVaRSpec minimizes empirical CVaR via the Rockafellar-Uryasev
// linearization: over (w, c), minimize c + (1/(alpha*T)) * sum max(0, -p_t - c).
// The auxiliary threshold c is the last decision variable and is excluded
// from the sum-to-one constraint.
func minCVaRSpec(s *sample, alpha float64, bounds [2]float64) problemSpec {
	n := len(s.assets)
	invAlphaT := 1.0 / (alpha * float64(len(s.rows)))

	objective := func(x []float64) float64 {
		c := x[n]
		series := s.portfolioSeries(x)
		excess := 0.0
		for _, p := range series {
			if loss := -p - c; loss > 0 {
				excess += loss
			}
		}
		return c + invAlphaT*excess
	}

	specBounds := uniformBounds(n, bounds)
	specBounds = append(specBounds, [2]float64{-1, 1})
	initial := equalStart(n)
	initial = append(initial, 0)

	return problemSpec{
		objective: objective,
		initial:   initial,
		bounds:    specBounds,
		sumVars:   n,
		smooth:    false,
	}
}

// mccSpec minimizes the maximum per-asset CVaR contribution, the minimax
// objective that spreads tail risk instead of minimizing its total.
func mccSpec(s *sample, confidence float64, bounds [2]float64) problemSpec {
	n := len(s.assets)
	objective := func(x []float64) float64 {
		series := s.portfolioSeries(x)
		cutoff := formulas.Percentile(series, 100-confidence)

		tailCount := 0
		tailSums := make([]float64, n)
		for t, p := range series {
			if p <= cutoff {
				tailCount++
				for i := 0; i < n; i++ {
					tailSums[i] += s.rows[t][i]
				}
			}
		}
		if tailCount == 0 {
			return 0
		}

		worst := math.Inf(-1)
		for i := 0; i < n; i++ {
			contribution := -x[i] * tailSums[i] / float64(tailCount)
			if contribution > worst {
				worst = contribution
			}
		}
		return worst
	}
	return problemSpec{
		objective: objective,
		initial:   equalStart(n),
		bounds:    uniformBounds(n, bounds),
		sumVars:   n,
		smooth:    false,
	}
}

func equalStart(n int) []float64 {
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}
	return initial
}

func uniformBounds(n int, b [2]float64) [][2]float64 {
	bounds := make([][2]float64, n)
	for i := range bounds {
		bounds[i] = b
	}
	return bounds
}
