package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OptionPosition describes one option leg for delta hedging.
type OptionPosition struct {
	Spot       float64 // current underlying price
	Strike     float64
	RiskFree   float64 // annualized, decimal
	Volatility float64 // annualized, decimal
	Maturity   float64 // years
	Contracts  float64
}

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// blackScholesD1 computes the d1 term of the Black-Scholes model.
func blackScholesD1(spot, strike, riskFree, vol, maturity float64) float64 {
	return (math.Log(spot/strike) + (riskFree+0.5*vol*vol)*maturity) / (vol * math.Sqrt(maturity))
}

// CallDelta returns the Black-Scholes delta of a European call.
func CallDelta(spot, strike, riskFree, vol, maturity float64) float64 {
	return stdNormal.CDF(blackScholesD1(spot, strike, riskFree, vol, maturity))
}

// PutDelta returns the Black-Scholes delta of a European put, expressed as a
// positive magnitude.
func PutDelta(spot, strike, riskFree, vol, maturity float64) float64 {
	return math.Abs(stdNormal.CDF(blackScholesD1(spot, strike, riskFree, vol, maturity)) - 1)
}

// DeltaHedge returns the net delta of a book of call and put positions:
// sum of call contract deltas minus sum of put contract deltas.
func DeltaHedge(calls, puts []OptionPosition) float64 {
	total := 0.0
	for _, c := range calls {
		total += c.Contracts * CallDelta(c.Spot, c.Strike, c.RiskFree, c.Volatility, c.Maturity)
	}
	for _, p := range puts {
		total -= p.Contracts * PutDelta(p.Spot, p.Strike, p.RiskFree, p.Volatility, p.Maturity)
	}
	return total
}
