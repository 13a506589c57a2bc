// Package timeseries provides the date-aligned price and return tables
// consumed by the risk, optimization and backtest modules. Tables are
// rectangular: every asset has a value for every date, dates are strictly
// increasing, and the structures are never mutated after construction.
package timeseries

import (
	"sort"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/pkg/formulas"
)

// PriceTable is a date-indexed table of closing prices, one column per asset.
type PriceTable struct {
	dates  []string
	assets []string
	data   map[string][]float64
}

// NewPriceTable validates and builds a PriceTable. Dates must be strictly
// increasing (ISO YYYY-MM-DD strings order lexicographically) and every
// asset column must cover every date.
func NewPriceTable(dates []string, data map[string][]float64) (*PriceTable, error) {
	if len(dates) == 0 {
		return nil, domain.NewValidationError("dates", "empty date range")
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("data", "no assets")
	}
	for i := 1; i < len(dates); i++ {
		if dates[i] <= dates[i-1] {
			return nil, domain.NewValidationError("dates", "dates must be strictly increasing")
		}
	}

	assets := make([]string, 0, len(data))
	for asset, col := range data {
		if len(col) != len(dates) {
			return nil, domain.NewValidationError("data", "asset "+asset+" does not cover every date")
		}
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	return &PriceTable{dates: dates, assets: assets, data: data}, nil
}

// Dates returns the table's date index.
func (p *PriceTable) Dates() []string { return p.dates }

// Assets returns the asset identifiers in sorted order.
func (p *PriceTable) Assets() []string { return p.assets }

// NumRows returns the number of dates.
func (p *PriceTable) NumRows() int { return len(p.dates) }

// Column returns the price series for one asset, nil if unknown.
func (p *PriceTable) Column(asset string) []float64 { return p.data[asset] }

// Last returns the most recent price for one asset.
func (p *PriceTable) Last(asset string) float64 {
	col := p.data[asset]
	if len(col) == 0 {
		return 0
	}
	return col[len(col)-1]
}

// Slice returns the window of rows [from, to). Bounds are not re-validated;
// callers derive them from the table's own length.
func (p *PriceTable) Slice(from, to int) *PriceTable {
	data := make(map[string][]float64, len(p.assets))
	for _, asset := range p.assets {
		data[asset] = p.data[asset][from:to]
	}
	return &PriceTable{dates: p.dates[from:to], assets: p.assets, data: data}
}

// Returns derives the daily simple-return matrix. The first date is dropped.
func (p *PriceTable) Returns() *ReturnMatrix {
	data := make(map[string][]float64, len(p.assets))
	for _, asset := range p.assets {
		data[asset] = formulas.CalculateReturns(p.data[asset])
	}
	return &ReturnMatrix{dates: p.dates[1:], assets: p.assets, data: data}
}

// ReturnMatrix is a date-indexed table of daily returns, one column per
// asset. Same invariants as PriceTable.
type ReturnMatrix struct {
	dates  []string
	assets []string
	data   map[string][]float64
}

// NewReturnMatrix validates and builds a ReturnMatrix directly from return
// observations.
func NewReturnMatrix(dates []string, data map[string][]float64) (*ReturnMatrix, error) {
	table, err := NewPriceTable(dates, data)
	if err != nil {
		return nil, err
	}
	return &ReturnMatrix{dates: table.dates, assets: table.assets, data: table.data}, nil
}

// Dates returns the matrix's date index.
func (r *ReturnMatrix) Dates() []string { return r.dates }

// Assets returns the asset identifiers in sorted order.
func (r *ReturnMatrix) Assets() []string { return r.assets }

// NumObs returns the number of return observations per asset.
func (r *ReturnMatrix) NumObs() int { return len(r.dates) }

// Column returns the return series for one asset, nil if unknown.
func (r *ReturnMatrix) Column(asset string) []float64 { return r.data[asset] }

// Row returns the cross-section of returns at observation t, in Assets()
// order.
func (r *ReturnMatrix) Row(t int) []float64 {
	row := make([]float64, len(r.assets))
	for i, asset := range r.assets {
		row[i] = r.data[asset][t]
	}
	return row
}

// Matrix returns the observations as rows of asset returns in Assets()
// order, a fresh copy each call.
func (r *ReturnMatrix) Matrix() [][]float64 {
	rows := make([][]float64, r.NumObs())
	for t := range rows {
		rows[t] = r.Row(t)
	}
	return rows
}

// PortfolioReturns computes the weighted portfolio return series. The weight
// vector's asset set must match the matrix columns exactly.
func (r *ReturnMatrix) PortfolioReturns(weights map[string]float64) ([]float64, error) {
	if len(weights) != len(r.assets) {
		return nil, domain.NewValidationError("weights", "asset set does not match return matrix columns")
	}
	for _, asset := range r.assets {
		if _, ok := weights[asset]; !ok {
			return nil, domain.NewValidationError("weights", "missing weight for asset "+asset)
		}
	}

	series := make([]float64, r.NumObs())
	for _, asset := range r.assets {
		w := weights[asset]
		for t, ret := range r.data[asset] {
			series[t] += w * ret
		}
	}
	return series, nil
}
