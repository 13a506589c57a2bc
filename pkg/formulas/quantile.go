package formulas

import (
	"math"
	"sort"
)

// Percentile returns the q-th percentile (q in [0, 100]) of data using
// linear interpolation between closest ranks. The input does not need to be
// sorted. Interpolation index is q/100*(n-1), matching the convention used
// by most numerical libraries.
func Percentile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	if len(data) == 1 {
		return data[0]
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	idx := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo < 0 {
		lo = 0
	}
	if hi > len(sorted)-1 {
		hi = len(sorted) - 1
	}
	if lo == hi {
		return sorted[lo]
	}

	frac := idx - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// TailMean returns the mean of all values at or below cutoff. The boolean is
// false when no value qualifies.
func TailMean(data []float64, cutoff float64) (float64, bool) {
	sum := 0.0
	count := 0
	for _, v := range data {
		if v <= cutoff {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// TailMembership marks the observations at or below cutoff.
func TailMembership(data []float64, cutoff float64) []bool {
	members := make([]bool, len(data))
	for i, v := range data {
		members[i] = v <= cutoff
	}
	return members
}
