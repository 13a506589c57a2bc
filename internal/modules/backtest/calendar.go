package backtest

import (
	"fmt"
	"math"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/pkg/formulas"
)

// cycleLength derives the number of trading days per rebalance cycle so
// that cycles of roughly rebalanceMonths months partition the full date
// range without overlap or gap: the total day count is divided by the
// rounded number of whole periods it contains.
func cycleLength(totalDays, rebalanceMonths int) (int, error) {
	if rebalanceMonths <= 0 {
		return 0, domain.NewValidationError("rebalance_months",
			fmt.Sprintf("must be positive, got %d", rebalanceMonths))
	}

	yearsPerPeriod := float64(rebalanceMonths) / 12.0
	periods := math.Round(float64(totalDays) / formulas.TradingDaysPerYear / yearsPerPeriod)
	if periods < 1 {
		return 0, domain.NewValidationError("prices",
			fmt.Sprintf("insufficient history: %d days cannot cover a %d-month cycle", totalDays, rebalanceMonths))
	}

	days := int(math.Round(float64(totalDays) / periods))

	// A lookback window must yield at least two return observations for the
	// optimizer, and at least one holding day must remain after it.
	if days < 3 || totalDays-days < 2 {
		return 0, domain.NewValidationError("prices",
			fmt.Sprintf("insufficient history: %d days for %d-day cycles", totalDays, days))
	}
	return days, nil
}
