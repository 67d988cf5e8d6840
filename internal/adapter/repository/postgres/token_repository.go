package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/V4T54L/alert-triage/internal/adapter/metrics"
)

type cacheEntry struct {
	expiresAt time.Time
}

// TokenRepository implements the domain.TokenRepository interface using PostgreSQL
// as the source of truth and an in-memory, time-based cache of valid tokens.
// Tokens are stored as hex-encoded SHA-256 digests, never in clear.
//
// Only valid tokens are cached, so the cache is bounded by the token table
// rather than by whatever callers send. Expired entries are evicted on lookup.
type TokenRepository struct {
	db       *sql.DB
	logger   *slog.Logger
	cache    map[string]cacheEntry
	mu       sync.RWMutex
	cacheTTL time.Duration
	metrics  *metrics.TriageMetrics
	now      func() time.Time
}

// NewTokenRepository creates a new instance of the PostgreSQL webhook token repository.
func NewTokenRepository(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration, m *metrics.TriageMetrics) *TokenRepository {
	return &TokenRepository{
		db:       db,
		logger:   logger.With("component", "token_repository"),
		cache:    make(map[string]cacheEntry),
		cacheTTL: cacheTTL,
		metrics:  m,
		now:      time.Now,
	}
}

// HashToken returns the digest under which a token is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsValid checks whether a token is known, active and unexpired. It first checks
// a local cache and falls back to the database on a miss or expired entry.
func (r *TokenRepository) IsValid(ctx context.Context, token string) (bool, error) {
	digest := HashToken(token)

	if r.cached(digest) {
		if r.metrics != nil {
			r.metrics.TokenCacheHits.Inc()
		}
		return true, nil
	}
	if r.metrics != nil {
		r.metrics.TokenCacheMisses.Inc()
	}

	var isValid bool
	query := `SELECT EXISTS(SELECT 1 FROM webhook_tokens WHERE token_sha256 = $1 AND is_active = true AND (expires_at IS NULL OR expires_at > NOW()))`
	if err := r.db.QueryRowContext(ctx, query, digest).Scan(&isValid); err != nil {
		r.logger.Error("failed to validate webhook token in database", "error", err)
		// Don't cache errors, let the next request retry from the DB
		return false, err
	}

	if isValid {
		r.remember(digest)
	}
	return isValid, nil
}

// cached reports whether digest has a live cache entry, deleting it once expired.
func (r *TokenRepository) cached(digest string) bool {
	r.mu.RLock()
	entry, found := r.cache[digest]
	r.mu.RUnlock()

	if !found {
		return false
	}
	if r.now().Before(entry.expiresAt) {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry, found = r.cache[digest]
	if found && r.now().Before(entry.expiresAt) {
		return true
	}
	delete(r.cache, digest)
	return false
}

func (r *TokenRepository) remember(digest string) {
	if r.cacheTTL <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[digest] = cacheEntry{expiresAt: r.now().Add(r.cacheTTL)}
}
