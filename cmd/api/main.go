package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/config"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/adapter/gateway/mpesa"
	httpHandler "github.com/capoeira360/Craft-Art-Market-sub001/internal/adapter/http/handler"
	pgStorage "github.com/capoeira360/Craft-Art-Market-sub001/internal/adapter/storage/postgres"
	redisStorage "github.com/capoeira360/Craft-Art-Market-sub001/internal/adapter/storage/redis"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/service"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/logger"
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
		Msg("Starting Settlement & Reconciliation Engine")

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
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	batchRepo := pgStorage.NewPayoutBatchRepo(pool)
	artisanRepo := pgStorage.NewArtisanRepo(pool)
	operatorRepo := pgStorage.NewOperatorRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	receiptStore := redisStorage.NewTransferReceiptStore(rdb)

	// Initialize the M-Pesa B2C gateway client
	gatewayClient := mpesa.NewClient(&http.Client{}, cfg.MPesa, log)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	authSvc := service.NewAuthService(operatorRepo, hashSvc, tokenSvc)
	ledgerSvc := service.NewLedgerService(ledgerRepo, transactor, log)
	matcher := service.NewMatcher(ledgerRepo)
	reconSvc := service.NewReconciliationService(ledgerRepo, matcher, log)
	payoutSvc := service.NewPayoutService(
		ledgerRepo,
		batchRepo,
		artisanRepo,
		gatewayClient,
		receiptStore,
		transactor,
		cfg.Payout,
		cfg.MPesa.Timeout,
		log,
	)
	reportingSvc := service.NewReportingService(ledgerRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		ReconSvc:       reconSvc,
		PayoutSvc:      payoutSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
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
