package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		q    float64
		want float64
	}{
		{
			name: "median of even count interpolates",
			data: []float64{1, 2, 3, 4},
			q:    50,
			want: 2.5,
		},
		{
			name: "zeroth percentile is minimum",
			data: []float64{3, 1, 2},
			q:    0,
			want: 1,
		},
		{
			name: "hundredth percentile is maximum",
			data: []float64{3, 1, 2},
			q:    100,
			want: 3,
		},
		{
			name: "25th percentile of four returns",
			data: []float64{-0.005, 0.005, 0.015, -0.03},
			q:    25,
			want: -0.01125,
		},
		{
			name: "single element",
			data: []float64{42},
			q:    73,
			want: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.data, tt.q)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPercentile_EmptyInput(t *testing.T) {
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	data := []float64{3, 1, 2}
	_ = Percentile(data, 50)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestTailMean(t *testing.T) {
	data := []float64{-0.03, -0.005, 0.005, 0.015}

	mean, ok := TailMean(data, -0.01125)
	assert.True(t, ok)
	assert.InDelta(t, -0.03, mean, 1e-12)

	mean, ok = TailMean(data, -0.005)
	assert.True(t, ok)
	assert.InDelta(t, (-0.03-0.005)/2, mean, 1e-12)

	_, ok = TailMean(data, -1)
	assert.False(t, ok)
}

func TestTailMembership_CutoffIsInclusive(t *testing.T) {
	members := TailMembership([]float64{-0.02, -0.01, 0.0}, -0.01)
	assert.Equal(t, []bool{true, true, false}, members)
}
