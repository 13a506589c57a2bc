// Package portfolio provides the thin cash-level wrappers around the risk
// core: position-scaled VaR/CVaR and rebalancing share counts. The
// percentage figures come from the risk module; this package only applies
// position sizes.
package portfolio

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/internal/timeseries"
)

// Service scales the risk core's fractional outputs by position sizes.
type Service struct {
	analyzer *risk.Analyzer
	log      zerolog.Logger
}

// NewService creates a new portfolio service.
func NewService(analyzer *risk.Analyzer, log zerolog.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		log:      log.With().Str("component", "portfolio").Logger(),
	}
}

// PositionRisk is VaR/CVaR both as fractions and in cash for a holdings
// portfolio valued at its latest prices.
type PositionRisk struct {
	PortfolioValue float64            `json:"portfolio_value"`
	Weights        map[string]float64 `json:"weights"`
	VaRPct         float64            `json:"var_pct"`
	CVaRPct        float64            `json:"cvar_pct"`
	VaRCash        float64            `json:"var_cash"`
	CVaRCash       float64            `json:"cvar_cash"`
}

// Risk computes tail risk for a share-count portfolio: weights are derived
// from the latest prices, the risk core produces the fractions, and the
// fractions are scaled by total position value.
func (s *Service) Risk(prices *timeseries.PriceTable, shares map[string]float64, params risk.Params) (PositionRisk, error) {
	if len(shares) == 0 {
		return PositionRisk{}, domain.NewValidationError("shares", "no positions")
	}

	total := 0.0
	values := make(map[string]float64, len(shares))
	for _, asset := range prices.Assets() {
		count, ok := shares[asset]
		if !ok {
			return PositionRisk{}, domain.NewValidationError("shares", "missing share count for asset "+asset)
		}
		value := count * prices.Last(asset)
		values[asset] = value
		total += value
	}
	if total <= 0 {
		return PositionRisk{}, domain.NewValidationError("shares",
			fmt.Sprintf("portfolio value must be positive, got %v", total))
	}

	weights := make(map[string]float64, len(values))
	for asset, value := range values {
		weights[asset] = value / total
	}

	measures, err := s.analyzer.Measure(prices.Returns(), weights, params)
	if err != nil {
		return PositionRisk{}, err
	}

	return PositionRisk{
		PortfolioValue: total,
		Weights:        weights,
		VaRPct:         measures.VaR,
		CVaRPct:        measures.CVaR,
		VaRCash:        measures.VaR * total,
		CVaRCash:       measures.CVaR * total,
	}, nil
}

// RebalanceShares returns the share count to buy (positive) or sell
// (negative) per asset to move from the current weights to the target
// weights at the latest prices.
func (s *Service) RebalanceShares(current, target map[string]float64, prices *timeseries.PriceTable, portfolioValue float64) (map[string]float64, error) {
	if portfolioValue <= 0 {
		return nil, domain.NewValidationError("portfolio_value",
			fmt.Sprintf("must be positive, got %v", portfolioValue))
	}

	deltas := make(map[string]float64, len(prices.Assets()))
	for _, asset := range prices.Assets() {
		price := prices.Last(asset)
		if price <= 0 {
			return nil, domain.NewValidationError("prices", "non-positive last price for asset "+asset)
		}
		deltas[asset] = (target[asset] - current[asset]) * portfolioValue / price
	}
	return deltas, nil
}
