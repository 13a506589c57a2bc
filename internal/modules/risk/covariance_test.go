package risk

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/tailrisk/internal/timeseries"
	"github.com/aristath/tailrisk/pkg/formulas"
)

func TestCovariance_MatchesPairwise(t *testing.T) {
	dates := make([]string, 20)
	a := make([]float64, 20)
	b := make([]float64, 20)
	for i := 0; i < 20; i++ {
		dates[i] = dateFor(i)
		a[i] = 0.01 * float64(i%5)
		b[i] = -0.005 * float64(i%3)
	}
	rm, err := timeseries.NewReturnMatrix(dates, map[string][]float64{"A": a, "B": b})
	require.NoError(t, err)

	cov := Covariance(rm)
	require.Equal(t, 2, cov.SymmetricDim())

	assert.InDelta(t, formulas.Variance(a), cov.At(0, 0), 1e-12)
	assert.InDelta(t, formulas.Variance(b), cov.At(1, 1), 1e-12)
	assert.InDelta(t, formulas.Covariance(a, b), cov.At(0, 1), 1e-12)
}

func TestCholeskyFactor_PositiveDefinite(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{
		0.04, 0.01,
		0.01, 0.09,
	})

	l, err := CholeskyFactor(cov, zerolog.Nop())
	require.NoError(t, err)

	// L * L^T reproduces the input.
	var product mat.Dense
	product.Mul(l, l.T())
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, cov.At(i, j), product.At(i, j), 1e-12)
		}
	}
}

func TestCholeskyFactor_RepairsSemiDefinite(t *testing.T) {
	// Rank-deficient: second row is a multiple of the first, so the plain
	// factorization fails and the eigenvalue repair path must run.
	cov := mat.NewSymDense(2, []float64{
		0.04, 0.08,
		0.08, 0.16,
	})

	l, err := CholeskyFactor(cov, zerolog.Nop())
	require.NoError(t, err)

	var product mat.Dense
	product.Mul(l, l.T())
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, cov.At(i, j), product.At(i, j), 1e-6)
		}
	}
}
