package risk

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/timeseries"
	"github.com/aristath/tailrisk/pkg/formulas"
)

// ScenarioModel generates correlated synthetic daily asset returns from a
// fitted covariance structure. The Cholesky factor and drift are explicit
// values held by the model, so concurrent backtest cycles and strategies can
// each hold independent, non-interfering instances.
type ScenarioModel struct {
	assets []string
	factor *mat.TriDense
	drift  float64
	normal distuv.Normal
}

// NewScenarioModel fits a scenario model: sample covariance of the return
// matrix, its lower Cholesky factor (with eigenvalue repair if needed), and
// the weighted mean daily return applied as a common drift. The seed makes
// draws reproducible.
func NewScenarioModel(rm *timeseries.ReturnMatrix, weights map[string]float64, seed uint64, log zerolog.Logger) (*ScenarioModel, error) {
	if err := validateWeights(weights); err != nil {
		return nil, err
	}
	if _, err := rm.PortfolioReturns(weights); err != nil {
		return nil, err
	}

	factor, err := CholeskyFactor(Covariance(rm), log)
	if err != nil {
		return nil, err
	}

	drift := 0.0
	for _, asset := range rm.Assets() {
		drift += weights[asset] * formulas.Mean(rm.Column(asset))
	}

	return &ScenarioModel{
		assets: rm.Assets(),
		factor: factor,
		drift:  drift,
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)},
	}, nil
}

// Assets returns the asset order of Draw's output.
func (m *ScenarioModel) Assets() []string { return m.assets }

// Draw produces one day of correlated asset returns: drift + L*z with z a
// vector of independent standard-normal shocks.
func (m *ScenarioModel) Draw() []float64 {
	n := len(m.assets)
	shocks := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		shocks.SetVec(i, m.normal.Rand())
	}

	var correlated mat.VecDense
	correlated.MulVec(m.factor, shocks)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = m.drift + correlated.AtVec(i)
	}
	return out
}

// SimulatePaths generates paths independent cumulative portfolio value
// trajectories of the given length, each starting from 1 and compounding
// correlated daily returns under the supplied weights. The whole ensemble is
// materialized since callers need it for percentile and fan-chart analysis.
func (a *Analyzer) SimulatePaths(rm *timeseries.ReturnMatrix, weights map[string]float64, days, paths int, seed uint64) ([][]float64, error) {
	model, err := NewScenarioModel(rm, weights, seed, a.log)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, paths)
	for p := 0; p < paths; p++ {
		path := make([]float64, days)
		value := 1.0
		for d := 0; d < days; d++ {
			returns := model.Draw()
			dayReturn := 0.0
			for i, asset := range model.assets {
				dayReturn += weights[asset] * returns[i]
			}
			value *= 1 + dayReturn
			path[d] = value
		}
		out[p] = path
	}

	a.log.Debug().
		Int("paths", paths).
		Int("days", days).
		Msg("Simulated correlated portfolio paths")

	return out, nil
}
