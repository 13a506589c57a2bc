package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/internal/timeseries"
)

func testPrices(t *testing.T) *timeseries.PriceTable {
	t.Helper()
	table, err := timeseries.NewPriceTable(
		[]string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08"},
		map[string][]float64{
			"AAA": {100, 102, 99, 101, 100},
			"BBB": {50, 49, 51, 50, 52},
		},
	)
	require.NoError(t, err)
	return table
}

func TestService_Risk(t *testing.T) {
	svc := NewService(risk.NewAnalyzer(zerolog.Nop()), zerolog.Nop())
	prices := testPrices(t)
	params, err := risk.NewParams(75)
	require.NoError(t, err)

	// 10 shares at 100 and 25 shares at 52: 1000 + 1300 = 2300.
	result, err := svc.Risk(prices, map[string]float64{"AAA": 10, "BBB": 25}, params)
	require.NoError(t, err)

	assert.InDelta(t, 2300, result.PortfolioValue, 1e-9)
	assert.InDelta(t, 1000.0/2300, result.Weights["AAA"], 1e-12)
	assert.InDelta(t, 1300.0/2300, result.Weights["BBB"], 1e-12)

	// Cash figures are the fractions scaled by portfolio value.
	assert.InDelta(t, result.VaRPct*2300, result.VaRCash, 1e-9)
	assert.InDelta(t, result.CVaRPct*2300, result.CVaRCash, 1e-9)
	assert.GreaterOrEqual(t, result.CVaRPct, result.VaRPct)
}

func TestService_Risk_Validation(t *testing.T) {
	svc := NewService(risk.NewAnalyzer(zerolog.Nop()), zerolog.Nop())
	prices := testPrices(t)
	params, err := risk.NewParams(95)
	require.NoError(t, err)

	_, err = svc.Risk(prices, nil, params)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Risk(prices, map[string]float64{"AAA": 10}, params)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Risk(prices, map[string]float64{"AAA": 0, "BBB": 0}, params)
	assert.True(t, domain.IsValidation(err))
}

func TestService_RebalanceShares(t *testing.T) {
	svc := NewService(risk.NewAnalyzer(zerolog.Nop()), zerolog.Nop())
	prices := testPrices(t)

	current := map[string]float64{"AAA": 0.5, "BBB": 0.5}
	target := map[string]float64{"AAA": 0.7, "BBB": 0.3}

	deltas, err := svc.RebalanceShares(current, target, prices, 10000)
	require.NoError(t, err)

	// Last prices are AAA=100, BBB=52.
	assert.InDelta(t, 0.2*10000/100, deltas["AAA"], 1e-9)
	assert.InDelta(t, -0.2*10000/52, deltas["BBB"], 1e-9)

	_, err = svc.RebalanceShares(current, target, prices, 0)
	assert.True(t, domain.IsValidation(err))
}
