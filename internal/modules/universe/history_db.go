// Package universe provides access to the historical price store that
// supplies the engine's rectangular price tables.
package universe

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/timeseries"
)

// HistoryDB provides access to historical price data
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryDB creates a new history database accessor
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// DailyPrice is one closing price observation
type DailyPrice struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// InitSchema creates the price table if missing.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			close  REAL NOT NULL,
			PRIMARY KEY (symbol, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_prices table: %w", err)
	}
	return nil
}

// SaveDailyPrices upserts a symbol's price series.
func (h *HistoryDB) SaveDailyPrices(symbol string, prices []DailyPrice) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET close = excluded.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.Exec(symbol, p.Date, p.Close); err != nil {
			return fmt.Errorf("failed to insert price: %w", err)
		}
	}
	return tx.Commit()
}

// GetPriceTable fetches the closing prices for the given symbols between
// start and end (inclusive, YYYY-MM-DD) as a rectangular table. The core
// demands no gaps: a symbol missing any date in the covered range is a
// validation error rather than something to silently fill.
func (h *HistoryDB) GetPriceTable(symbols []string, start, end string) (*timeseries.PriceTable, error) {
	if len(symbols) == 0 {
		return nil, domain.NewValidationError("symbols", "no symbols requested")
	}

	query := `
		SELECT symbol, date, close
		FROM daily_prices
		WHERE symbol IN (` + placeholders(len(symbols)) + `)
			AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	args := make([]interface{}, 0, len(symbols)+2)
	for _, symbol := range symbols {
		args = append(args, symbol)
	}
	args = append(args, start, end)

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	bySymbol := make(map[string]map[string]float64, len(symbols))
	dateSet := make(map[string]bool)

	for rows.Next() {
		var symbol, date string
		var price float64
		if err := rows.Scan(&symbol, &date, &price); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		if bySymbol[symbol] == nil {
			bySymbol[symbol] = make(map[string]float64)
		}
		bySymbol[symbol][date] = price
		dateSet[date] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price rows: %w", err)
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	if len(dates) == 0 {
		return nil, domain.NewValidationError("prices",
			fmt.Sprintf("no price history between %s and %s", start, end))
	}

	data := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		column := make([]float64, len(dates))
		for i, date := range dates {
			price, ok := bySymbol[symbol][date]
			if !ok {
				return nil, domain.NewValidationError("prices",
					fmt.Sprintf("symbol %s has no price on %s", symbol, date))
			}
			column[i] = price
		}
		data[symbol] = column
	}

	h.log.Debug().
		Int("num_dates", len(dates)).
		Int("num_symbols", len(symbols)).
		Msg("Fetched price table")

	return timeseries.NewPriceTable(dates, data)
}

// placeholders builds SQL placeholders for an IN clause.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
