package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/alert-triage/internal/adapter/metrics"
	"github.com/V4T54L/alert-triage/internal/domain"
)

const payloadField = "payload"

// DecisionRepository publishes triage decisions to a Redis Stream.
// While Redis is unreachable decisions go to the WAL, which is replayed on recovery.
type DecisionRepository struct {
	client      *redis.Client
	logger      *slog.Logger
	wal         domain.WALRepository
	stream      string
	maxLen      int64
	metrics     *metrics.TriageMetrics
	isAvailable atomic.Bool
}

// NewDecisionRepository creates a Redis-backed decision publisher.
// The WAL and metrics are optional. maxLen caps the stream approximately; 0 leaves it unbounded.
func NewDecisionRepository(client *redis.Client, logger *slog.Logger, stream string, maxLen int64, wal domain.WALRepository, m *metrics.TriageMetrics) *DecisionRepository {
	repo := &DecisionRepository{
		client:  client,
		logger:  logger.With("component", "redis_decision_repository"),
		wal:     wal,
		stream:  stream,
		maxLen:  maxLen,
		metrics: m,
	}
	repo.isAvailable.Store(true) // Assume available initially
	return repo
}

// Publish appends the decision to the stream, falling back to the WAL if Redis is unavailable.
func (r *DecisionRepository) Publish(ctx context.Context, decision domain.Decision) error {
	if !r.isAvailable.Load() {
		return r.writeWAL(ctx, decision, nil)
	}

	err := r.xadd(ctx, decision)
	if err == nil {
		return nil
	}
	if !isNetworkError(err) {
		return err
	}
	if r.isAvailable.CompareAndSwap(true, false) {
		r.logger.Error("Redis connection lost during write", "error", err)
		r.setWALActive(true)
	}
	return r.writeWAL(ctx, decision, err)
}

// Ping reports whether Redis answers.
func (r *DecisionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// StartHealthCheck monitors Redis connectivity and replays the WAL once it recovers.
// It blocks until ctx is done.
func (r *DecisionRepository) StartHealthCheck(ctx context.Context, interval time.Duration) {
	if r.wal == nil {
		r.logger.Info("WAL is not configured, skipping health check/replayer")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Starting Redis health check and WAL replayer")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping Redis health check")
			return
		case <-ticker.C:
			r.checkHealth(ctx)
		}
	}
}

func (r *DecisionRepository) checkHealth(ctx context.Context) {
	if err := r.Ping(ctx); err != nil {
		if r.isAvailable.CompareAndSwap(true, false) {
			r.logger.Error("Redis connection lost", "error", err)
			r.setWALActive(true)
		}
		return
	}
	if !r.isAvailable.Load() {
		r.logger.Info("Redis connection recovered")
		if err := r.ReplayWAL(ctx); err != nil {
			r.logger.Error("Failed to replay WAL after Redis recovery", "error", err)
			return
		}
		r.isAvailable.Store(true)
		r.setWALActive(false)
	}
}

// ReplayWAL re-publishes logged decisions to Redis and truncates the WAL on success.
func (r *DecisionRepository) ReplayWAL(ctx context.Context) error {
	if r.wal == nil {
		return nil
	}
	r.logger.Info("Attempting to replay WAL to Redis")

	if err := r.wal.ReplayAndTruncate(ctx, func(d domain.Decision) error {
		return r.xadd(ctx, d)
	}); err != nil {
		return fmt.Errorf("WAL replay failed: %w", err)
	}

	r.logger.Info("WAL replay to Redis completed successfully")
	return nil
}

func (r *DecisionRepository) writeWAL(ctx context.Context, decision domain.Decision, cause error) error {
	if r.wal == nil {
		if cause != nil {
			return fmt.Errorf("redis became unavailable and WAL is not configured: %w", cause)
		}
		return errors.New("redis is unavailable and WAL is not configured")
	}
	r.logger.Warn("Redis is unavailable, writing decision to WAL", "decision_id", decision.ID)
	return r.wal.Write(ctx, decision)
}

func (r *DecisionRepository) xadd(ctx context.Context, decision domain.Decision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{
			payloadField: payload,
			"category":   string(decision.Analysis.Category),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to redis stream: %w", err)
	}
	return nil
}

func (r *DecisionRepository) setWALActive(active bool) {
	if r.metrics == nil {
		return
	}
	if active {
		r.metrics.WALActive.Set(1)
		return
	}
	r.metrics.WALActive.Set(0)
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.DeadlineExceeded)
}
