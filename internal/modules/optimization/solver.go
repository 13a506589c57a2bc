package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// penaltyWeight scales the quadratic penalty that enforces the sum-to-one
// equality constraint inside the unconstrained solver.
const penaltyWeight = 1000.0

// problemSpec is one constrained minimization: a raw objective over the
// decision vector, optional analytic gradient, per-variable box bounds, and
// the number of leading variables that must sum to 1 (auxiliary variables
// such as the Rockafellar-Uryasev threshold are excluded from the
// constraint).
type problemSpec struct {
	objective func(x []float64) float64
	gradient  func(grad, x []float64)
	initial   []float64
	bounds    [][2]float64
	sumVars   int
	smooth    bool
}

// iterate is the solver's final point. When converged is false, x still
// carries the best feasible iterate seen.
type iterate struct {
	x         []float64
	value     float64
	converged bool
	status    string
}

// projectToBounds clamps every variable into its box.
func projectToBounds(x []float64, bounds [][2]float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(bounds[i][0], math.Min(bounds[i][1], x[i]))
	}
	return proj
}

// solve minimizes the spec's objective subject to its constraints using the
// generic nonlinear solver: bounds by projection, the equality constraint by
// quadratic penalty. Smooth problems run BFGS first with a Nelder-Mead
// retry; non-smooth problems run Nelder-Mead first with a
// finite-difference BFGS retry.
func solve(spec problemSpec) iterate {
	penalized := func(x []float64) float64 {
		proj := projectToBounds(x, spec.bounds)
		obj := spec.objective(proj)

		sum := 0.0
		for i := 0; i < spec.sumVars; i++ {
			sum += proj[i]
		}
		return obj + penaltyWeight*(sum-1)*(sum-1)
	}

	problem := optimize.Problem{Func: penalized}
	if spec.gradient != nil {
		problem.Grad = func(grad, x []float64) {
			proj := projectToBounds(x, spec.bounds)
			spec.gradient(grad, proj)

			sum := 0.0
			for i := 0; i < spec.sumVars; i++ {
				sum += proj[i]
			}
			for i := 0; i < spec.sumVars; i++ {
				grad[i] += 2 * penaltyWeight * (sum - 1)
			}
		}
	}

	var primary, fallback optimize.Method
	if spec.smooth {
		primary, fallback = &optimize.BFGS{}, &optimize.NelderMead{}
	} else {
		primary, fallback = &optimize.NelderMead{}, &optimize.BFGS{}
	}

	result, err := optimize.Minimize(problem, spec.initial, &optimize.Settings{}, primary)
	if err != nil || !acceptableStatus(result.Status) {
		retried, retryErr := optimize.Minimize(problem, spec.initial, &optimize.Settings{}, fallback)
		if retryErr == nil && acceptableStatus(retried.Status) {
			result, err = retried, nil
		} else if result == nil {
			result, err = retried, retryErr
		}
	}

	if result == nil {
		return iterate{
			x:         projectToBounds(spec.initial, spec.bounds),
			value:     spec.objective(projectToBounds(spec.initial, spec.bounds)),
			converged: false,
			status:    fmt.Sprintf("solver error: %v", err),
		}
	}

	x := normalizeIterate(result.X, spec.bounds, spec.sumVars)
	out := iterate{
		x:     x,
		value: spec.objective(x),
	}

	switch {
	case err != nil:
		out.status = fmt.Sprintf("solver error: %v", err)
	case !acceptableStatus(result.Status):
		out.status = result.Status.String()
	default:
		out.converged = true
		out.status = result.Status.String()
	}
	return out
}

// acceptableStatus reports whether the solver status counts as convergence.
func acceptableStatus(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	}
	return false
}

// normalizeIterate projects the solution into its bounds and rescales the
// constrained variables so they sum to exactly 1. Auxiliary variables keep
// their projected values.
func normalizeIterate(x []float64, bounds [][2]float64, sumVars int) []float64 {
	proj := projectToBounds(x, bounds)

	sum := 0.0
	for i := 0; i < sumVars; i++ {
		sum += proj[i]
	}
	if math.Abs(sum) < 1e-10 {
		// Degenerate projection; fall back to uniform weights so the caller
		// still receives a feasible point (flagged unconverged upstream).
		for i := 0; i < sumVars; i++ {
			proj[i] = 1.0 / float64(sumVars)
		}
		return proj
	}
	for i := 0; i < sumVars; i++ {
		proj[i] /= sum
	}
	return proj
}
