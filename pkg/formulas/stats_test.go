package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 0.0, Mean(nil))
}

func TestStdDev(t *testing.T) {
	// Sample standard deviation of {2, 4, 4, 4, 5, 5, 7, 9}.
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, math.Sqrt(32.0/7.0), got, 1e-12)
}

func TestCovariance(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2, 4, 6, 8}

	assert.InDelta(t, Variance(x), Covariance(x, x), 1e-12)
	assert.InDelta(t, 2*Variance(x), Covariance(x, y), 1e-12)
}

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   []float64
	}{
		{
			name:   "steady growth",
			prices: []float64{100, 110, 121},
			want:   []float64{0.1, 0.1},
		},
		{
			name:   "decline",
			prices: []float64{100, 90},
			want:   []float64{-0.1},
		},
		{
			name:   "too short",
			prices: []float64{100},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateReturns(tt.prices)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	daily := []float64{0.01, -0.01, 0.02, -0.02, 0.005}
	want := StdDev(daily) * math.Sqrt(TradingDaysPerYear)
	assert.InDelta(t, want, AnnualizedVolatility(daily), 1e-12)
}
