// Package server provides the HTTP server and routing for the risk engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/config"
	"github.com/aristath/tailrisk/internal/modules/backtest"
	backtesthandlers "github.com/aristath/tailrisk/internal/modules/backtest/handlers"
	"github.com/aristath/tailrisk/internal/modules/optimization"
	optimizationhandlers "github.com/aristath/tailrisk/internal/modules/optimization/handlers"
	"github.com/aristath/tailrisk/internal/modules/portfolio"
	"github.com/aristath/tailrisk/internal/modules/risk"
	riskhandlers "github.com/aristath/tailrisk/internal/modules/risk/handlers"
	"github.com/aristath/tailrisk/internal/modules/universe"
	universehandlers "github.com/aristath/tailrisk/internal/modules/universe/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	HistoryDB *universe.HistoryDB
	Analyzer  *risk.Analyzer
	Optimizer *optimization.Optimizer
	Engine    *backtest.Engine
	Positions *portfolio.Service
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // backtests and simulations can run long
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(120 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		riskHandler := riskhandlers.NewHandler(s.cfg.HistoryDB, s.cfg.Analyzer, s.cfg.Positions, s.log)
		riskHandler.RegisterRoutes(r)

		optimizationHandler := optimizationhandlers.NewHandler(s.cfg.HistoryDB, s.cfg.Optimizer, s.log)
		optimizationHandler.RegisterRoutes(r)

		backtestHandler := backtesthandlers.NewHandler(s.cfg.HistoryDB, s.cfg.Engine, s.cfg.Optimizer, s.log)
		backtestHandler.RegisterRoutes(r)

		universeHandler := universehandlers.NewHandler(s.cfg.HistoryDB, s.log)
		universeHandler.RegisterRoutes(r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Config.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
