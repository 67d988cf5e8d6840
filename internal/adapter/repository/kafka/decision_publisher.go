// Package kafka publishes triage decisions to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/V4T54L/alert-triage/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DecisionPublisher writes one message per decision, keyed by event source so
// decisions from the same source land on the same partition in order.
type DecisionPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewDecisionPublisher creates a publisher for topic on the given brokers.
func NewDecisionPublisher(brokers []string, topic string, logger *slog.Logger) *DecisionPublisher {
	return newDecisionPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}, logger)
}

func newDecisionPublisher(w messageWriter, logger *slog.Logger) *DecisionPublisher {
	return &DecisionPublisher{
		writer: w,
		logger: logger.With("component", "kafka_decision_publisher"),
	}
}

// Publish writes decision synchronously.
func (p *DecisionPublisher) Publish(ctx context.Context, decision domain.Decision) error {
	value, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(decision.Source),
		Value: value,
		Time:  decision.ReceivedAt,
		Headers: []kafka.Header{
			{Key: "decision_id", Value: []byte(decision.ID)},
			{Key: "category", Value: []byte(decision.Analysis.Category)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write decision to kafka: %w", err)
	}
	p.logger.Debug("decision published", "decision_id", decision.ID)
	return nil
}

// Close flushes pending writes and releases the connection.
func (p *DecisionPublisher) Close() error {
	return p.writer.Close()
}
