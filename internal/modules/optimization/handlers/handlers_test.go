package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tailrisk/internal/modules/optimization"
	"github.com/aristath/tailrisk/internal/modules/universe"
)

func testRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, universe.InitSchema(db))

	historyDB := universe.NewHistoryDB(db, zerolog.Nop())

	// 60 days of deterministic prices for two assets.
	for symbol, phase := range map[string]float64{"AAA": 0.0, "BBB": 1.5} {
		prices := make([]universe.DailyPrice, 60)
		for i := 0; i < 60; i++ {
			prices[i] = universe.DailyPrice{
				Date:  fmt.Sprintf("2024-%02d-%02d", i/28+1, i%28+1),
				Close: 100 * math.Exp(0.001*float64(i)+0.01*math.Sin(float64(i)*0.8+phase)),
			}
		}
		require.NoError(t, historyDB.SaveDailyPrices(symbol, prices))
	}

	handler := NewHandler(historyDB, optimization.NewOptimizer(zerolog.Nop()), zerolog.Nop())
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestHandleObjectives(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/optimization/objectives", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Data, 6)
	assert.Contains(t, response.Data, "min_variance")
	assert.Contains(t, response.Data, "min_cvar_concentration")
}

func TestHandleOptimize_MinVariance(t *testing.T) {
	router := testRouter(t)

	payload, err := json.Marshal(map[string]interface{}{
		"symbols":   []string{"AAA", "BBB"},
		"objective": "min_variance",
		"start":     "2024-01-01",
		"end":       "2024-03-28",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/optimization/solve", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			Weights   map[string]float64 `json:"weights"`
			Converged bool               `json:"converged"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	require.Len(t, response.Data.Weights, 2)
	sum := 0.0
	for _, w := range response.Data.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.True(t, response.Data.Converged)
}

func TestHandleOptimize_UnknownObjective(t *testing.T) {
	router := testRouter(t)

	payload := []byte(`{"symbols": ["AAA"], "objective": "max_profit"}`)
	req := httptest.NewRequest(http.MethodPost, "/optimization/solve", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOptimize_NoData(t *testing.T) {
	router := testRouter(t)

	payload := []byte(`{"symbols": ["ZZZ"], "objective": "min_variance", "start": "2024-01-01", "end": "2024-02-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/optimization/solve", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
