// Package main is the entry point for the tailrisk portfolio risk and
// optimization service. It exposes historical VaR/CVaR analytics, Monte-Carlo
// scenario simulation, constrained portfolio optimization, and a rolling
// rebalance backtest engine over a small HTTP API backed by a SQLite price
// history database.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aristath/tailrisk/internal/config"
	"github.com/aristath/tailrisk/internal/modules/backtest"
	"github.com/aristath/tailrisk/internal/modules/optimization"
	"github.com/aristath/tailrisk/internal/modules/portfolio"
	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/internal/modules/universe"
	"github.com/aristath/tailrisk/internal/server"
	"github.com/aristath/tailrisk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Msg("Starting tailrisk service")

	db, err := sql.Open("sqlite3", cfg.HistoryDBPath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer db.Close()

	if err := universe.InitSchema(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history schema")
	}

	historyDB := universe.NewHistoryDB(db, log)
	analyzer := risk.NewAnalyzer(log)
	optimizer := optimization.NewOptimizer(log)
	engine := backtest.NewEngine(log)
	positions := portfolio.NewService(analyzer, log)

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		HistoryDB: historyDB,
		Analyzer:  analyzer,
		Optimizer: optimizer,
		Engine:    engine,
		Positions: positions,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
