package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"updown-game-server/config"
	httpHandler "updown-game-server/internal/adapter/http/handler"
	pgStorage "updown-game-server/internal/adapter/storage/postgres"
	redisStorage "updown-game-server/internal/adapter/storage/redis"
	"updown-game-server/internal/adapter/ws"
	"updown-game-server/internal/core/ports"
	"updown-game-server/internal/metrics"
	"updown-game-server/internal/service"
	"updown-game-server/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Up/Down Game Server")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	sessionRepo := pgStorage.NewSessionRepo(pool)
	roundRepo := pgStorage.NewRoundRepo(pool)
	betRepo := pgStorage.NewBetRepo(pool)
	jackpotRepo := pgStorage.NewJackpotRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize core services
	sessionStore := service.NewSessionStore(sessionRepo, log)
	cardSource := service.NewRandomCardSource()
	tokenSvc := service.NewTokenService(cfg.JWT)

	// Initialize business services
	ledgerSvc := service.NewLedgerService(userRepo, sessionRepo, sessionStore, transactor, log)
	gameSvc := service.NewGameService(
		sessionStore, sessionRepo, roundRepo, betRepo, jackpotRepo,
		transactor, cardSource, cfg.Game, log,
	)
	statsSvc := service.NewStatsService(userRepo, sessionStore, roundRepo, betRepo, jackpotRepo, log)

	// Initialize rate limit store
	rateLimiter := redisStorage.NewRateLimitStore(rdb, cfg.Game.MessageRateLimit, cfg.Game.MessageRateWin)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Metrics
	m := metrics.New(prometheus.DefaultRegisterer)

	// Websocket hub, countdowns and handler
	hub := ws.NewHub(log)
	countdowns := ws.NewCountdowns(cfg.Game.CountdownTicks, cfg.Game.TickInterval)
	wsHandler := ws.NewHandler(
		hub, countdowns,
		ledgerSvc, gameSvc, statsSvc, tokenSvc, rateLimiter,
		m, cfg.Game, log,
	)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WSHandler:      wsHandler,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
