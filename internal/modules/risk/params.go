package risk

import (
	"fmt"
	"math"

	"github.com/aristath/tailrisk/internal/domain"
)

// WeightSumTolerance is the allowed deviation of a weight vector's sum
// from 1.
const WeightSumTolerance = 1e-6

// Params carries the confidence level for tail-risk measures. The
// confidence (in percent) and significance alpha = (100-conf)/100 are two
// views of the same value; constructors validate either representation.
type Params struct {
	Confidence float64
}

// NewParams validates a confidence level in percent, exclusive of 0 and 100.
func NewParams(confidence float64) (Params, error) {
	if !(confidence > 0 && confidence < 100) {
		return Params{}, domain.NewValidationError("confidence",
			fmt.Sprintf("must be between 0 and 100 (exclusive), got %v", confidence))
	}
	return Params{Confidence: confidence}, nil
}

// ParamsFromAlpha validates a significance level in (0, 1) and converts it to
// the confidence representation.
func ParamsFromAlpha(alpha float64) (Params, error) {
	if !(alpha > 0 && alpha < 1) {
		return Params{}, domain.NewValidationError("alpha",
			fmt.Sprintf("must be between 0 and 1 (exclusive), got %v", alpha))
	}
	return Params{Confidence: 100 * (1 - alpha)}, nil
}

// Alpha returns the significance level (100 - conf) / 100.
func (p Params) Alpha() float64 {
	return (100 - p.Confidence) / 100
}

// validateWeights checks that the weight vector sums to 1 within tolerance.
// Asset-set agreement with the return matrix is checked where the series is
// actually combined.
func validateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return domain.NewValidationError("weights", "empty weight vector")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1) > WeightSumTolerance {
		return domain.NewValidationError("weights",
			fmt.Sprintf("weights must sum to 1, got %v", sum))
	}
	return nil
}
