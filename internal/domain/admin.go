package domain

import "context"

// ConsumerGroupInfo represents information about a consumer group reading the decision stream.
type ConsumerGroupInfo struct {
	Name            string `json:"name"`
	Consumers       int64  `json:"consumers"`
	Pending         int64  `json:"pending"`
	LastDeliveredID string `json:"last_delivered_id"`
}

// PendingMessageSummary provides a summary of decisions delivered to a group but not yet acknowledged.
type PendingMessageSummary struct {
	Total          int64            `json:"total"`
	FirstMessageID string           `json:"first_message_id,omitempty"`
	LastMessageID  string           `json:"last_message_id,omitempty"`
	ConsumerTotals map[string]int64 `json:"consumer_totals,omitempty"`
}

// StoredDecision is a decision as read back from the decision stream.
type StoredDecision struct {
	StreamID string   `json:"stream_id"`
	Decision Decision `json:"decision"`
}

// DecisionStreamAdmin inspects and maintains the decision stream.
type DecisionStreamAdmin interface {
	Recent(ctx context.Context, count int64) ([]StoredDecision, error)
	GroupInfo(ctx context.Context) ([]ConsumerGroupInfo, error)
	PendingSummary(ctx context.Context, group string) (*PendingMessageSummary, error)
	Trim(ctx context.Context, maxLen int64) (int64, error)
}
