package risk

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/timeseries"
)

// eigenvalueFloor replaces eigenvalues below it when a covariance matrix has
// to be repaired before factorization.
const eigenvalueFloor = 1e-12

// Covariance computes the sample covariance matrix of the return matrix,
// columns in Assets() order. The result is a fresh value owned by the
// caller; nothing is cached.
func Covariance(rm *timeseries.ReturnMatrix) *mat.SymDense {
	assets := rm.Assets()
	n := len(assets)
	obs := rm.NumObs()

	flat := make([]float64, obs*n)
	for t := 0; t < obs; t++ {
		copy(flat[t*n:(t+1)*n], rm.Row(t))
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, mat.NewDense(obs, n, flat), nil)
	return cov
}

// CholeskyFactor returns the lower-triangular factor L with L*L^T = cov.
//
// A covariance matrix that is not positive definite within tolerance is a
// recoverable numerical condition: negative eigenvalues are clipped to a
// small floor, the correction is logged, and factorization is retried. Only
// if the repaired matrix still cannot be factored is a NumericalError
// returned.
func CholeskyFactor(cov *mat.SymDense, log zerolog.Logger) (*mat.TriDense, error) {
	var chol mat.Cholesky
	if chol.Factorize(cov) {
		l := mat.NewTriDense(cov.SymmetricDim(), mat.Lower, nil)
		chol.LTo(l)
		return l, nil
	}

	repaired, err := clipEigenvalues(cov)
	if err != nil {
		return nil, err
	}

	log.Warn().
		Msg("Covariance matrix not positive definite, clipped negative eigenvalues")

	if !chol.Factorize(repaired) {
		return nil, &domain.NumericalError{
			Op:     "cholesky",
			Reason: "covariance matrix not positive semi-definite after eigenvalue clipping",
		}
	}

	l := mat.NewTriDense(cov.SymmetricDim(), mat.Lower, nil)
	chol.LTo(l)
	return l, nil
}

// clipEigenvalues reconstructs cov with every eigenvalue raised to at least
// the floor.
func clipEigenvalues(cov *mat.SymDense) (*mat.SymDense, error) {
	n := cov.SymmetricDim()

	var eigen mat.EigenSym
	if !eigen.Factorize(cov, true) {
		return nil, &domain.NumericalError{
			Op:     "eigendecomposition",
			Reason: "failed to decompose covariance matrix",
		}
	}

	values := eigen.Values(nil)
	for i, v := range values {
		if v < eigenvalueFloor {
			values[i] = eigenvalueFloor
		}
	}

	var vectors mat.Dense
	eigen.VectorsTo(&vectors)

	var scaled, product mat.Dense
	scaled.Mul(&vectors, mat.NewDiagDense(n, values))
	product.Mul(&scaled, vectors.T())

	repaired := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			repaired.SetSym(i, j, (product.At(i, j)+product.At(j, i))/2)
		}
	}
	return repaired, nil
}
