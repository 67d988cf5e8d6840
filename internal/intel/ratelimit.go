package intel

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/V4T54L/alert-triage/internal/domain"
)

type rateLimited struct {
	Provider
	limiter *rate.Limiter
}

// RateLimited wraps p so that at most perMinute lookups start per minute.
// Callers waiting for a token give up when ctx is done.
func RateLimited(p Provider, perMinute int) Provider {
	if perMinute <= 0 {
		return p
	}
	return &rateLimited{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (r *rateLimited) Lookup(ctx context.Context, indicator string) domain.ProviderVerdict {
	if err := r.limiter.Wait(ctx); err != nil {
		return Failed(r.Name(), fmt.Errorf("rate limit: %w", err))
	}
	return r.Provider.Lookup(ctx, indicator)
}
