package backtest

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/optimization"
	"github.com/aristath/tailrisk/internal/timeseries"
)

// FallbackPolicy decides what the engine does when a strategy's optimizer
// fails to converge at a rebalance boundary. A failure never injects a
// missing value into the history.
type FallbackPolicy int

const (
	// FallbackCarryForward keeps the previous cycle's weights (equal
	// weights when there is no previous cycle yet).
	FallbackCarryForward FallbackPolicy = iota
	// FallbackEqualWeight resets the strategy to the uniform portfolio.
	FallbackEqualWeight
	// FallbackAbort stops the whole simulation with the solver's error.
	FallbackAbort
)

// ParseFallbackPolicy maps a policy name to its FallbackPolicy. The empty
// string selects FallbackCarryForward.
func ParseFallbackPolicy(name string) (FallbackPolicy, error) {
	switch name {
	case "", "carry_forward":
		return FallbackCarryForward, nil
	case "equal_weight":
		return FallbackEqualWeight, nil
	case "abort":
		return FallbackAbort, nil
	}
	return FallbackCarryForward, domain.NewValidationError("fallback", fmt.Sprintf("unknown fallback policy %q", name))
}

// Config describes one simulation run.
type Config struct {
	Prices          *timeseries.PriceTable
	BenchmarkPrices *timeseries.PriceTable // single column, same dates as Prices; required by benchmark-relative strategies
	InitialCapital  float64
	RebalanceMonths int
	Fallback        FallbackPolicy
}

// Engine drives repeated optimizations over successive lookback windows and
// compounds each strategy's value through the holding periods in between.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a new backtest engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log: log.With().Str("component", "backtest_engine").Logger(),
	}
}

// Run simulates every strategy over the full price history.
//
// The date range is partitioned into cycles of cycleLength trading days.
// The first cycle is pure lookback; from then on the engine holds each
// strategy's weights fixed, compounds value day by day, and at every cycle
// boundary re-solves each strategy on the trailing lookback window ending at
// the boundary. Weights for a cycle depend only on data available at or
// before its rebalance date. Cycles advance strictly in sequence; the
// per-strategy solves within one rebalance run concurrently since they share
// only read-only data.
func (e *Engine) Run(cfg Config, strategies []WeightSolver) (*History, error) {
	if err := validateConfig(cfg, strategies); err != nil {
		return nil, err
	}

	totalDays := cfg.Prices.NumRows()
	cycleDays, err := cycleLength(totalDays, cfg.RebalanceMonths)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	e.log.Info().
		Str("run_id", runID).
		Int("total_days", totalDays).
		Int("cycle_days", cycleDays).
		Int("strategies", len(strategies)).
		Msg("Starting backtest simulation")

	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}

	// First lookback window, then the out-of-sample span.
	held, err := e.rebalance(cfg, strategies, nil, 0, cycleDays)
	if err != nil {
		return nil, err
	}

	holding := cfg.Prices.Slice(cycleDays, totalDays)
	returns := holding.Returns()

	history := newHistory(runID, names, holding.NumRows())
	values := make(map[string]float64, len(strategies))
	for _, name := range names {
		values[name] = cfg.InitialCapital
	}
	history.append(holding.Dates()[0], values)

	dayCounter := 0
	for t := 0; t < returns.NumObs(); t++ {
		if dayCounter == cycleDays {
			// Trailing lookback of cycleDays prices ending today, offset
			// into the full table.
			end := cycleDays + t + 1
			held, err = e.rebalance(cfg, strategies, held, end-cycleDays, end)
			if err != nil {
				return nil, err
			}
			dayCounter = 0
		}

		row := returns.Row(t)
		assets := returns.Assets()
		for _, name := range names {
			dayReturn := 0.0
			for i, asset := range assets {
				dayReturn += held[name][asset] * row[i]
			}
			values[name] *= 1 + dayReturn
		}
		history.append(returns.Dates()[t], values)

		dayCounter++
	}

	e.log.Info().
		Str("run_id", runID).
		Int("rows", len(history.Dates)).
		Msg("Backtest simulation complete")

	return history, nil
}

// rebalance re-solves every strategy on the price window [from, to) of the
// full table, concurrently, and applies the fallback policy to any solver
// that failed to converge. previous is nil on the initial solve.
func (e *Engine) rebalance(cfg Config, strategies []WeightSolver, previous map[string]map[string]float64, from, to int) (map[string]map[string]float64, error) {
	window := cfg.Prices.Slice(from, to).Returns()

	var benchmark []float64
	if cfg.BenchmarkPrices != nil {
		bench := cfg.BenchmarkPrices.Slice(from, to).Returns()
		benchmark = bench.Column(bench.Assets()[0])
	}

	type outcome struct {
		result optimization.Result
		err    error
	}
	outcomes := make([]outcome, len(strategies))

	var wg sync.WaitGroup
	for i, strategy := range strategies {
		wg.Add(1)
		go func(i int, strategy WeightSolver) {
			defer wg.Done()
			result, err := strategy.Solve(window, benchmark)
			outcomes[i] = outcome{result: result, err: err}
		}(i, strategy)
	}
	wg.Wait()

	held := make(map[string]map[string]float64, len(strategies))
	for i, strategy := range strategies {
		name := strategy.Name()
		out := outcomes[i]

		if out.err == nil {
			held[name] = out.result.Weights
			continue
		}
		if !domain.IsConvergence(out.err) {
			return nil, fmt.Errorf("strategy %s: %w", name, out.err)
		}

		weights, err := e.fallbackWeights(cfg.Fallback, name, previous, window.Assets(), out.err)
		if err != nil {
			return nil, err
		}
		held[name] = weights
	}
	return held, nil
}

// fallbackWeights resolves the weights for a strategy whose solver did not
// converge, per the configured policy.
func (e *Engine) fallbackWeights(policy FallbackPolicy, name string, previous map[string]map[string]float64, assets []string, solveErr error) (map[string]float64, error) {
	switch policy {
	case FallbackAbort:
		return nil, fmt.Errorf("strategy %s: %w", name, solveErr)
	case FallbackEqualWeight:
		e.log.Warn().
			Str("strategy", name).
			Msg("Optimizer did not converge, resetting to equal weights")
		return optimization.EqualWeights(assets), nil
	default: // FallbackCarryForward
		if prev, ok := previous[name]; ok {
			e.log.Warn().
				Str("strategy", name).
				Msg("Optimizer did not converge, carrying previous weights forward")
			return prev, nil
		}
		e.log.Warn().
			Str("strategy", name).
			Msg("Optimizer did not converge on initial window, using equal weights")
		return optimization.EqualWeights(assets), nil
	}
}

func validateConfig(cfg Config, strategies []WeightSolver) error {
	if cfg.Prices == nil {
		return domain.NewValidationError("prices", "price table is required")
	}
	if len(strategies) == 0 {
		return domain.NewValidationError("strategies", "at least one strategy is required")
	}
	if cfg.InitialCapital <= 0 {
		return domain.NewValidationError("initial_capital",
			fmt.Sprintf("must be positive, got %v", cfg.InitialCapital))
	}
	if cfg.BenchmarkPrices != nil {
		if cfg.BenchmarkPrices.NumRows() != cfg.Prices.NumRows() {
			return domain.NewValidationError("benchmark",
				"benchmark prices must cover the same dates as the asset prices")
		}
		if len(cfg.BenchmarkPrices.Assets()) != 1 {
			return domain.NewValidationError("benchmark", "benchmark must be a single column")
		}
	}
	return nil
}
