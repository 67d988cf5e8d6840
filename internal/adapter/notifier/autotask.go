package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/pkg/config"
	"github.com/V4T54L/alert-triage/internal/pkg/httpclient"
)

const (
	msgAutotaskDisabled      = "Autotask disabled"
	msgAutotaskNotConfigured = "Autotask not fully configured"
	msgTicketCreated         = "created"

	ticketStatusNew = 1
)

type ticketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      int    `json:"status"`
	QueueID     int    `json:"queueID"`
	AccountID   int    `json:"accountID"`
	Priority    int    `json:"priority"`
}

// AutotaskTicketer opens tickets through the Autotask REST API.
type AutotaskTicketer struct {
	cfg    config.AutotaskConfig
	client *httpclient.Client
	logger *slog.Logger
}

// NewAutotaskTicketer creates a ticketer whose API calls are bounded by timeout.
func NewAutotaskTicketer(cfg config.AutotaskConfig, timeout time.Duration, logger *slog.Logger) *AutotaskTicketer {
	return &AutotaskTicketer{
		cfg: cfg,
		client: httpclient.New(cfg.BaseURL,
			httpclient.WithTimeout(timeout),
			httpclient.WithHeader("ApiIntegrationCode", cfg.IntegrationCode),
			httpclient.WithHeader("UserName", cfg.Username),
			httpclient.WithHeader("Secret", cfg.Secret),
		),
		logger: logger.With("component", "autotask_ticketer"),
	}
}

func (a *AutotaskTicketer) configured() bool {
	c := a.cfg
	return c.BaseURL != "" && c.IntegrationCode != "" && c.Username != "" && c.Secret != "" && c.AccountID != 0 && c.QueueID != 0
}

// CreateTicket opens a new ticket. A non-positive priority falls back to the configured default.
func (a *AutotaskTicketer) CreateTicket(ctx context.Context, title, description string, priority int) domain.ActionStatus {
	if !a.cfg.Enabled {
		return domain.ActionStatus{OK: false, Message: msgAutotaskDisabled}
	}
	if !a.configured() {
		return domain.ActionStatus{OK: false, Message: msgAutotaskNotConfigured}
	}
	if priority <= 0 {
		priority = a.cfg.TicketPriority
	}

	resp, err := a.client.PostJSON(ctx, "/tickets", ticketRequest{
		Title:       title,
		Description: description,
		Status:      ticketStatusNew,
		QueueID:     a.cfg.QueueID,
		AccountID:   a.cfg.AccountID,
		Priority:    priority,
	})
	if err != nil {
		a.logger.Error("failed to create ticket", "error", err)
		return domain.ActionStatus{OK: false, Message: err.Error()}
	}

	status := domain.ActionStatus{OK: true, Message: msgTicketCreated}
	if json.Valid(resp) {
		status.Response = resp
	}
	a.logger.Info("ticket created", "title", title)
	return status
}
