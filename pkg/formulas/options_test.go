package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallDelta(t *testing.T) {
	// At the money with zero rate, delta is just above 0.5.
	delta := CallDelta(100, 100, 0, 0.2, 1)
	assert.Greater(t, delta, 0.5)
	assert.Less(t, delta, 0.6)

	// Deep in the money approaches 1, deep out of the money approaches 0.
	assert.InDelta(t, 1.0, CallDelta(200, 100, 0, 0.2, 1), 1e-3)
	assert.InDelta(t, 0.0, CallDelta(50, 100, 0, 0.2, 1), 1e-3)
}

func TestPutDelta_IsPositiveMagnitude(t *testing.T) {
	delta := PutDelta(100, 100, 0, 0.2, 1)
	assert.Greater(t, delta, 0.0)
	assert.Less(t, delta, 1.0)

	// Put-call parity: call delta + put delta magnitude = 1.
	call := CallDelta(100, 110, 0.01, 0.25, 0.5)
	put := PutDelta(100, 110, 0.01, 0.25, 0.5)
	assert.InDelta(t, 1.0, call+put, 1e-12)
}

func TestDeltaHedge(t *testing.T) {
	calls := []OptionPosition{
		{Spot: 100, Strike: 100, RiskFree: 0.01, Volatility: 0.2, Maturity: 1, Contracts: 10},
	}
	puts := []OptionPosition{
		{Spot: 100, Strike: 100, RiskFree: 0.01, Volatility: 0.2, Maturity: 1, Contracts: 10},
	}

	callDelta := CallDelta(100, 100, 0.01, 0.2, 1)
	putDelta := PutDelta(100, 100, 0.01, 0.2, 1)
	want := 10*callDelta - 10*putDelta

	assert.InDelta(t, want, DeltaHedge(calls, puts), 1e-12)
	assert.Equal(t, 0.0, DeltaHedge(nil, nil))
}
