package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tailrisk/internal/modules/portfolio"
	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/internal/modules/universe"
)

func testRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, universe.InitSchema(db))

	historyDB := universe.NewHistoryDB(db, zerolog.Nop())
	require.NoError(t, historyDB.SaveDailyPrices("AAA", []universe.DailyPrice{
		{Date: "2024-01-02", Close: 100},
		{Date: "2024-01-03", Close: 99.5},
		{Date: "2024-01-04", Close: 100},
		{Date: "2024-01-05", Close: 101.5},
		{Date: "2024-01-08", Close: 98.5},
	}))

	analyzer := risk.NewAnalyzer(zerolog.Nop())
	positions := portfolio.NewService(analyzer, zerolog.Nop())
	handler := NewHandler(historyDB, analyzer, positions, zerolog.Nop())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, router *chi.Mux, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleMeasures(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/risk/measures", map[string]interface{}{
		"symbols":    []string{"AAA"},
		"weights":    map[string]float64{"AAA": 1.0},
		"confidence": 75,
		"start":      "2024-01-02",
		"end":        "2024-01-08",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			VaRPct  float64 `json:"var_pct"`
			CVaRPct float64 `json:"cvar_pct"`
			Method  string  `json:"method"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	// The 4 daily returns are -0.005, ~0.005, 0.015, ~-0.0296.
	assert.Equal(t, "historical", response.Data.Method)
	assert.Greater(t, response.Data.VaRPct, 0.0)
	assert.GreaterOrEqual(t, response.Data.CVaRPct, response.Data.VaRPct)
}

func TestHandleMeasures_BadConfidence(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/risk/measures", map[string]interface{}{
		"symbols":    []string{"AAA"},
		"weights":    map[string]float64{"AAA": 1.0},
		"confidence": 150,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMeasures_InvalidBody(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/risk/measures", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleContributions(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/risk/contributions", map[string]interface{}{
		"symbols":    []string{"AAA"},
		"weights":    map[string]float64{"AAA": 1.0},
		"confidence": 75,
		"start":      "2024-01-02",
		"end":        "2024-01-08",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			Contributions map[string]float64 `json:"contributions"`
			TotalCVaR     float64            `json:"total_cvar"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	require.Len(t, response.Data.Contributions, 1)
	assert.InDelta(t, response.Data.TotalCVaR, response.Data.Contributions["AAA"], 1e-12)
}

func TestHandleSimulate(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/risk/simulate", map[string]interface{}{
		"symbols": []string{"AAA"},
		"weights": map[string]float64{"AAA": 1.0},
		"days":    5,
		"paths":   3,
		"seed":    7,
		"start":   "2024-01-02",
		"end":     "2024-01-08",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			Paths [][]float64 `json:"paths"`
			Days  int         `json:"days"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Data.Paths, 3)
	assert.Len(t, response.Data.Paths[0], 5)
}

func TestHandleSimulate_RejectsNonPositiveSizes(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/risk/simulate", map[string]interface{}{
		"symbols": []string{"AAA"},
		"weights": map[string]float64{"AAA": 1.0},
		"days":    0,
		"paths":   10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePositionRisk(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/risk/positions", map[string]interface{}{
		"shares":     map[string]float64{"AAA": 10},
		"confidence": 75,
		"start":      "2024-01-02",
		"end":        "2024-01-08",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			PortfolioValue float64 `json:"portfolio_value"`
			VaRCash        float64 `json:"var_cash"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	// 10 shares at the latest close of 98.5.
	assert.InDelta(t, 985, response.Data.PortfolioValue, 1e-9)
	assert.Greater(t, response.Data.VaRCash, 0.0)
}
