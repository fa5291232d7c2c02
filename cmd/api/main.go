package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/medagg/patient-connect/internal/api/router"
	"github.com/medagg/patient-connect/internal/calls"
	appconfig "github.com/medagg/patient-connect/internal/config"
	"github.com/medagg/patient-connect/internal/dashboard"
	"github.com/medagg/patient-connect/internal/enrichment"
	"github.com/medagg/patient-connect/internal/http/handlers"
	"github.com/medagg/patient-connect/internal/ivr"
	observemetrics "github.com/medagg/patient-connect/internal/observability/metrics"
	"github.com/medagg/patient-connect/internal/patients"
	"github.com/medagg/patient-connect/internal/transcribe"
	"github.com/medagg/patient-connect/internal/twilio"
	"github.com/medagg/patient-connect/pkg/logging"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.NewWithOptions(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	logger.Info("starting patient-connect API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	metrics := observemetrics.NewCallMetrics(prometheus.DefaultRegisterer)

	// Repositories: Postgres when DATABASE_URL is set, in-memory otherwise so
	// the server stays runnable for local demos.
	var (
		callsRepo        calls.Repository
		patientsRepo     patients.Repository
		dashboardHandler *dashboard.Handler
	)
	if cfg.DatabaseURL != "" {
		poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			logger.Error("invalid database URL", "error", err)
			os.Exit(1)
		}
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
		pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(context.Background()); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		callsRepo = calls.NewPostgresRepository(pool)
		patientsRepo = patients.NewPostgresRepository(pool)

		// The dashboard aggregates run over database/sql.
		sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open sql db", "error", err)
			os.Exit(1)
		}
		defer func() { _ = sqlDB.Close() }()

		var statsCache *dashboard.StatsCache
		if cfg.RedisAddr != "" {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			})
			defer func() { _ = redisClient.Close() }()
			statsCache = dashboard.NewStatsCache(redisClient, cfg.StatsCacheTTL, logger)
		}
		dashboardHandler = dashboard.NewHandler(dashboard.NewStatsRepository(sqlDB), statsCache, logger)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		callsRepo = calls.NewInMemoryRepository()
		patientsRepo = patients.NewInMemoryRepository()
	}

	// Without provider credentials the server runs in demo mode: bookings
	// still work and every call is simulated instead of dialed.
	var twilioClient *twilio.Client
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioPhoneNumber != "" {
		client, err := twilio.NewClient(twilio.ClientConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioPhoneNumber,
			BaseURL:    cfg.TwilioBaseURL,
			Logger:     logger,
		})
		if err != nil {
			logger.Error("failed to create twilio client", "error", err)
			os.Exit(1)
		}
		twilioClient = client
	} else {
		logger.Warn("twilio credentials not set, outbound calls run in demo mode")
	}

	flow := ivr.NewFlow(cfg.PublicBaseURL)
	orchCfg := ivr.OrchestratorConfig{
		Calls:       callsRepo,
		Flow:        flow,
		CountryCode: cfg.DefaultCountryCode,
		Logger:      logger,
		Metrics:     metrics,
	}
	if twilioClient != nil {
		orchCfg.Dialer = twilioClient
	}
	orchestrator := ivr.NewOrchestrator(orchCfg)

	var sid, token string
	if twilioClient != nil {
		sid, token = twilioClient.Credentials()
	}
	transcriber := transcribe.NewWhisperTranscriber(transcribe.WhisperConfig{
		Python:     cfg.TranscribePython,
		Script:     cfg.TranscribeScript,
		AccountSID: sid,
		AuthToken:  token,
		Logger:     logger,
	})
	pipeline := enrichment.NewPipeline(enrichment.PipelineConfig{
		Calls:       callsRepo,
		Transcriber: transcriber,
		Timeout:     cfg.EnrichmentTimeout,
		WaitMax:     cfg.RecordingWaitMax,
		Logger:      logger,
		Metrics:     metrics,
	})

	patientsHandler := patients.NewHandler(patients.HandlerConfig{
		Repo:         patientsRepo,
		Initiator:    orchestrator,
		ClinicNumber: cfg.TwilioPhoneNumber,
		Logger:       logger,
	})
	callsHandler := calls.NewHandler(callsRepo, nil, logger)
	if twilioClient != nil {
		callsHandler = calls.NewHandler(callsRepo, twilioClient, logger)
	}
	webhookHandler := handlers.NewIVRWebhookHandler(handlers.IVRWebhookConfig{
		Flow:     flow,
		Calls:    callsRepo,
		Enricher: pipeline,
		Logger:   logger,
		Metrics:  metrics,
	})

	r := router.New(router.Config{
		Patients:           patientsHandler,
		Calls:              callsHandler,
		Dashboard:          dashboardHandler,
		IVRWebhooks:        webhookHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
