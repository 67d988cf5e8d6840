package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/alert-triage/internal/domain"
)

// AdminRepository implements the domain.DecisionStreamAdmin interface for Redis.
type AdminRepository struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

// NewAdminRepository creates a new Redis admin repository for the given stream.
func NewAdminRepository(client *redis.Client, stream string, logger *slog.Logger) *AdminRepository {
	return &AdminRepository{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Recent returns up to count decisions, newest first.
func (r *AdminRepository) Recent(ctx context.Context, count int64) ([]domain.StoredDecision, error) {
	messages, err := r.client.XRevRangeN(ctx, r.stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", r.stream, err)
	}

	decisions := make([]domain.StoredDecision, 0, len(messages))
	for _, msg := range messages {
		payload, ok := msg.Values[payloadField].(string)
		if !ok {
			r.logger.Warn("Invalid message format in stream, skipping", "message_id", msg.ID)
			continue
		}
		var d domain.Decision
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			r.logger.Warn("Failed to unmarshal decision from stream, skipping", "message_id", msg.ID, "error", err)
			continue
		}
		decisions = append(decisions, domain.StoredDecision{StreamID: msg.ID, Decision: d})
	}
	return decisions, nil
}

// GroupInfo retrieves information about all consumer groups reading the stream.
func (r *AdminRepository) GroupInfo(ctx context.Context) ([]domain.ConsumerGroupInfo, error) {
	groups, err := r.client.XInfoGroups(ctx, r.stream).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get group info for stream %s: %w", r.stream, err)
	}

	result := make([]domain.ConsumerGroupInfo, len(groups))
	for i, g := range groups {
		result[i] = domain.ConsumerGroupInfo{
			Name:            g.Name,
			Consumers:       g.Consumers,
			Pending:         g.Pending,
			LastDeliveredID: g.LastDeliveredID,
		}
	}
	return result, nil
}

// PendingSummary retrieves a summary of pending decisions for a group.
func (r *AdminRepository) PendingSummary(ctx context.Context, group string) (*domain.PendingMessageSummary, error) {
	pending, err := r.client.XPending(ctx, r.stream, group).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending summary for stream %s, group %s: %w", r.stream, group, err)
	}

	return &domain.PendingMessageSummary{
		Total:          pending.Count,
		FirstMessageID: pending.Lower,
		LastMessageID:  pending.Upper,
		ConsumerTotals: pending.Consumers,
	}, nil
}

// Trim trims the stream to a maximum length.
func (r *AdminRepository) Trim(ctx context.Context, maxLen int64) (int64, error) {
	return r.client.XTrimMaxLen(ctx, r.stream, maxLen).Result()
}
