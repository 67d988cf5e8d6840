package domain

import "context"

// Enricher resolves threat-intelligence results for a set of indicators.
// Implementations never fail; provider errors are recorded in the results.
type Enricher interface {
	EnrichAll(ctx context.Context, indicators []string) []IntelResult
}

// Notifier sends triage notifications by email.
type Notifier interface {
	SendEmail(ctx context.Context, subject, body string) ActionStatus
}

// Ticketer opens tickets in an external ticket tracker.
type Ticketer interface {
	CreateTicket(ctx context.Context, title, description string, priority int) ActionStatus
}

// DecisionPublisher hands triage decisions to downstream consumers.
type DecisionPublisher interface {
	Publish(ctx context.Context, decision Decision) error
}

// TokenRepository defines the interface for validating webhook tokens.
type TokenRepository interface {
	// IsValid checks if the provided token is known and active.
	// Implementations should handle caching to reduce database load.
	IsValid(ctx context.Context, token string) (bool, error)
}

// WALRepository defines the interface for the Write-Ahead Log failover mechanism.
type WALRepository interface {
	// Write appends a decision to the local WAL file.
	Write(ctx context.Context, decision Decision) error

	// ReplayAndTruncate sends every logged decision to handler, which re-publishes
	// it (e.g., to Redis), then removes what was replayed. Decisions written
	// during the replay are kept.
	ReplayAndTruncate(ctx context.Context, handler func(decision Decision) error) error
}
