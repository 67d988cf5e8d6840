package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/alert-triage/internal/adapter/api"
	"github.com/V4T54L/alert-triage/internal/adapter/api/handler"
	"github.com/V4T54L/alert-triage/internal/adapter/metrics"
	"github.com/V4T54L/alert-triage/internal/adapter/notifier"
	"github.com/V4T54L/alert-triage/internal/adapter/pii"
	kafkarepo "github.com/V4T54L/alert-triage/internal/adapter/repository/kafka"
	"github.com/V4T54L/alert-triage/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/alert-triage/internal/adapter/repository/redis"
	"github.com/V4T54L/alert-triage/internal/adapter/repository/wal"
	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/intel"
	"github.com/V4T54L/alert-triage/internal/normalize"
	"github.com/V4T54L/alert-triage/internal/pkg/config"
	"github.com/V4T54L/alert-triage/internal/pkg/logger"
	"github.com/V4T54L/alert-triage/internal/scoring"
	"github.com/V4T54L/alert-triage/internal/usecase"

	_ "github.com/lib/pq" // postgres driver
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewTriageMetrics(reg)

	// --- Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	adminServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: adminMux,
	}

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	readiness := map[string]handler.ReadinessCheck{}

	// --- Webhook tokens ---
	var tokens domain.TokenRepository
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		tokens = postgres.NewTokenRepository(db, logger, cfg.TokenCacheTTL, m)
		readiness["postgres"] = db.PingContext
	}

	// --- Decision sink ---
	var publisher domain.DecisionPublisher
	switch cfg.Decision.Sink {
	case config.SinkRedis:
		redisOpts, err := redis.ParseURL(cfg.Decision.RedisAddr)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		redisUp := true
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, decisions will go to the WAL", "error", err)
			redisUp = false
		}

		walRepo, err := wal.NewWALRepository(cfg.Decision.WALPath, cfg.Decision.WALSegmentSize, cfg.Decision.WALMaxDiskSize, logger)
		if err != nil {
			logger.Error("failed to initialize WAL repository", "error", err)
			os.Exit(1)
		}
		defer walRepo.Close()

		decisionRepo := redisrepo.NewDecisionRepository(redisClient, logger, cfg.Decision.Stream, cfg.Decision.StreamMaxLen, walRepo, m)
		if redisUp {
			// Drain whatever a previous run left behind.
			if err := decisionRepo.ReplayWAL(ctx); err != nil {
				logger.Warn("startup WAL replay failed", "error", err)
			}
		}
		// Starts the Redis health check and replays the WAL once Redis is back.
		go decisionRepo.StartHealthCheck(ctx, 5*time.Second)
		publisher = decisionRepo

		adminUseCase := usecase.NewAdminStreamUseCase(redisrepo.NewAdminRepository(redisClient, cfg.Decision.Stream, logger))
		adminMux.Handle("/", api.NewAdminRouter(adminUseCase, logger, cfg.AdminJWTSecret))

	case config.SinkKafka:
		kafkaPublisher := kafkarepo.NewDecisionPublisher(cfg.Decision.KafkaBrokers, cfg.Decision.KafkaTopic, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

	default:
		logger.Info("decision sink disabled")
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Triage pipeline ---
	providers := intel.ProvidersFromConfig(cfg.Intel)
	aggregator := intel.NewAggregator(providers, intel.NewCache(cfg.Intel.CacheTTL), cfg.Intel.HTTPTimeout, logger,
		intel.WithObserver(m), intel.WithLimits(cfg.Intel.MaxIndicators, cfg.Intel.Concurrency))
	logger.Info("threat intel providers configured", "providers", aggregator.Providers())

	engine, err := scoring.NewEngine(cfg.Scoring)
	if err != nil {
		logger.Error("invalid scoring configuration", "error", err)
		os.Exit(1)
	}

	sseBroker := handler.NewSSEBroker(ctx, logger)

	triageUseCase := usecase.NewTriageUseCase(usecase.TriageDeps{
		Normalizer:     normalize.New(),
		Enricher:       aggregator,
		Engine:         engine,
		Notifier:       notifier.NewEmailNotifier(cfg.Email, logger),
		Ticketer:       notifier.NewAutotaskTicketer(cfg.Autotask, cfg.Intel.HTTPTimeout, logger),
		Publisher:      publisher,
		Redactor:       pii.NewRedactor(cfg.PIIRedactionFields, logger),
		Reporter:       sseBroker,
		Metrics:        m,
		TicketPriority: cfg.Autotask.TicketPriority,
	}, logger)

	// --- Webhook Server ---
	router := api.NewRouter(cfg, logger, api.RouterDeps{
		Processor: triageUseCase,
		Tokens:    tokens,
		Metrics:   m,
		Events:    sseBroker,
		Health:    handler.NewHealthHandler(cfg.ServiceName, version, readiness, logger),
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: /events streams for as long as the client stays connected,
		// and a triage may wait on every intel provider plus a ticket call.
	}

	go func() {
		logger.Info("starting webhook server", "addr", server.Addr, "version", version)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("webhook server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("webhook server shutdown failed", "error", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
