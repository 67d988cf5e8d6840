package intel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/V4T54L/alert-triage/internal/domain"
)

const tracerName = "github.com/V4T54L/alert-triage/internal/intel"

const (
	// DefaultMaxIndicators caps how many indicators of one event are looked up.
	DefaultMaxIndicators = 32
	// DefaultConcurrency caps how many indicators are enriched at once.
	DefaultConcurrency = 8
)

// Observer receives enrichment telemetry.
type Observer interface {
	ObserveLookup(provider string, status domain.VerdictStatus, elapsed time.Duration)
	ObserveCache(hit bool)
}

type noopObserver struct{}

func (noopObserver) ObserveLookup(string, domain.VerdictStatus, time.Duration) {}
func (noopObserver) ObserveCache(bool)                                         {}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithObserver sets the telemetry sink.
func WithObserver(o Observer) Option {
	return func(a *Aggregator) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithLimits bounds per-event enrichment: at most maxIndicators are looked up,
// at most concurrency at a time. Non-positive values keep the defaults.
func WithLimits(maxIndicators, concurrency int) Option {
	return func(a *Aggregator) {
		if maxIndicators > 0 {
			a.maxIndicators = maxIndicators
		}
		if concurrency > 0 {
			a.concurrency = concurrency
		}
	}
}

// Aggregator queries every configured provider for an indicator and combines their verdicts.
// It is constructed once per process and shared by all requests.
type Aggregator struct {
	providers []Provider
	cache     *Cache
	timeout   time.Duration
	logger    *slog.Logger
	observer  Observer
	tracer    trace.Tracer

	maxIndicators int
	concurrency   int
}

// NewAggregator creates an Aggregator. timeout bounds every single provider call.
func NewAggregator(providers []Provider, cache *Cache, timeout time.Duration, logger *slog.Logger, opts ...Option) *Aggregator {
	if cache == nil {
		cache = NewCache(0)
	}
	a := &Aggregator{
		providers: providers,
		cache:     cache,
		timeout:   timeout,
		logger:    logger.With("component", "intel_aggregator"),
		observer:  noopObserver{},
		tracer:    otel.Tracer(tracerName),

		maxIndicators: DefaultMaxIndicators,
		concurrency:   DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Providers returns the names of the participating providers.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// EnrichAll enriches indicators concurrently and returns results in input order.
// Indicators past the per-event cap are not looked up; they get an empty result.
func (a *Aggregator) EnrichAll(ctx context.Context, indicators []string) []domain.IntelResult {
	results := make([]domain.IntelResult, len(indicators))
	lookups := indicators
	if len(lookups) > a.maxIndicators {
		a.logger.Warn("too many indicators in event, enriching only the first ones",
			"indicators", len(indicators), "enriched", a.maxIndicators)
		lookups = indicators[:a.maxIndicators]
		for i := len(lookups); i < len(indicators); i++ {
			results[i] = Aggregate(indicators[i], nil)
		}
	}

	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup
	for i, indicator := range lookups {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			results[i] = a.Enrich(ctx, indicator)
		}()
	}
	wg.Wait()
	return results
}

// Enrich returns the intel result for one indicator, from cache when a live
// entry exists. It never fails: provider errors are recorded in Sources.
func (a *Aggregator) Enrich(ctx context.Context, indicator string) domain.IntelResult {
	if res, ok := a.cache.Get(indicator); ok {
		a.observer.ObserveCache(true)
		return res
	}
	a.observer.ObserveCache(false)

	verdicts := make([]domain.ProviderVerdict, len(a.providers))
	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			verdicts[i] = a.lookup(ctx, p, indicator)
		}()
	}
	wg.Wait()

	res := Aggregate(indicator, verdicts)

	// A result assembled after the caller gave up may be missing verdicts
	// for reasons unrelated to the providers; keep it out of the cache.
	if ctx.Err() != nil {
		a.logger.Debug("request cancelled during enrichment, result not cached", "indicator", indicator)
		return res
	}
	// When every provider failed there is nothing worth keeping; the next
	// webhook for this indicator should ask again.
	if allFailed(verdicts) {
		a.logger.Debug("every intel provider failed, result not cached", "indicator", indicator)
		return res
	}
	a.cache.Set(indicator, res)
	return res
}

func allFailed(verdicts []domain.ProviderVerdict) bool {
	if len(verdicts) == 0 {
		return false
	}
	for _, v := range verdicts {
		if v.Status != domain.VerdictError {
			return false
		}
	}
	return true
}

func (a *Aggregator) lookup(ctx context.Context, p Provider, indicator string) domain.ProviderVerdict {
	name := p.Name()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "intel.lookup", trace.WithAttributes(
		attribute.String("intel.provider", name),
		attribute.String("intel.indicator", indicator),
	))
	defer span.End()

	start := time.Now()
	done := make(chan domain.ProviderVerdict, 1)
	go func() {
		done <- p.Lookup(ctx, indicator)
	}()

	var v domain.ProviderVerdict
	select {
	case v = <-done:
	case <-ctx.Done():
		v = Failed(name, fmt.Errorf("lookup abandoned: %w", ctx.Err()))
	}
	v.Provider = name
	elapsed := time.Since(start)

	span.SetAttributes(attribute.String("intel.status", string(v.Status)), attribute.Int("intel.vote", v.Vote))
	if v.Status == domain.VerdictError {
		span.SetStatus(codes.Error, v.Error)
		a.logger.Warn("intel provider lookup failed", "provider", name, "indicator", indicator, "error", v.Error, "duration_ms", elapsed.Milliseconds())
	}
	a.observer.ObserveLookup(name, v.Status, elapsed)
	return v
}
