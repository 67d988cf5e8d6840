package api

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/alert-triage/internal/adapter/api/handler"
	"github.com/V4T54L/alert-triage/internal/adapter/api/middleware"
	"github.com/V4T54L/alert-triage/internal/adapter/metrics"
	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/pkg/config"
)

// RouterDeps groups what the public router needs. Tokens, Metrics and Events are optional.
type RouterDeps struct {
	Processor handler.TriageProcessor
	Tokens    domain.TokenRepository
	Metrics   *metrics.TriageMetrics
	Events    http.Handler
	Health    *handler.HealthHandler
}

// NewRouter creates and configures the main HTTP router for the triage service.
func NewRouter(cfg *config.Config, logger *slog.Logger, deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	webhookHandler := handler.NewWebhookHandler(deps.Processor, logger, cfg.MaxEventSize, deps.Metrics)

	// Middleware
	limit := middleware.MaxBody(cfg.MaxEventSize)
	auth := middleware.WebhookAuth(cfg.Webhook, deps.Tokens, logger)

	// Routes
	mux.Handle("POST /webhook", limit(auth(webhookHandler)))
	if deps.Events != nil {
		mux.Handle("GET /events", deps.Events)
	}

	// Health
	health := deps.Health
	if health == nil {
		health = handler.NewHealthHandler("alert-triage", "dev", nil, logger)
	}
	mux.HandleFunc("GET /{$}", health.Root)
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)

	return middleware.Logging(logger)(mux)
}
