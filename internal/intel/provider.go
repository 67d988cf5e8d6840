// Package intel enriches indicators with third-party threat-intelligence verdicts.
//
// Each configured Provider is queried concurrently under its own timeout. A
// provider call always ends in a domain.ProviderVerdict (vote, no vote or
// error), so aggregation is a pure function over verdicts and one failing
// feed never affects the others.
package intel

import (
	"context"
	"encoding/json"

	"github.com/V4T54L/alert-triage/internal/domain"
)

// Provider looks up a single indicator in one threat-intel feed.
// Lookup must honour ctx cancellation and must not panic.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, indicator string) domain.ProviderVerdict
}

// Voted builds a verdict carrying a vote.
func Voted(provider string, response json.RawMessage, vote int) domain.ProviderVerdict {
	return domain.ProviderVerdict{Provider: provider, Status: domain.VerdictVote, Vote: vote, Response: response}
}

// NoVote builds a verdict for a successful lookup that found no signal.
func NoVote(provider string, response json.RawMessage) domain.ProviderVerdict {
	return domain.ProviderVerdict{Provider: provider, Status: domain.VerdictNoVote, Response: response}
}

// Failed builds an error verdict.
func Failed(provider string, err error) domain.ProviderVerdict {
	return domain.ProviderVerdict{Provider: provider, Status: domain.VerdictError, Error: err.Error()}
}

func verdictFor(provider string, response json.RawMessage, vote int, ok bool) domain.ProviderVerdict {
	if !ok {
		return NoVote(provider, response)
	}
	return Voted(provider, response, vote)
}

// Aggregate folds provider verdicts into an IntelResult. The score is the
// maximum vote cast (votes never compound), 0 when nobody voted.
func Aggregate(indicator string, verdicts []domain.ProviderVerdict) domain.IntelResult {
	res := domain.IntelResult{
		Indicator: indicator,
		Sources:   make(map[string]domain.ProviderVerdict, len(verdicts)),
	}
	for _, v := range verdicts {
		res.Sources[v.Provider] = v
		if v.Status == domain.VerdictVote && v.Vote > res.Score {
			res.Score = v.Vote
		}
	}
	res.Score = clamp(res.Score, 0, 100)
	res.Labels = []string{domain.LabelFor(res.Score)}
	return res
}

// OTXVote derives a vote from the number of OTX pulses referencing an indicator.
func OTXVote(pulses int) (int, bool) {
	if pulses <= 0 {
		return 0, false
	}
	return min(30, 10+pulses), true
}

// VirusTotalVote derives a vote from the last-analysis malicious and suspicious counts.
func VirusTotalVote(malicious, suspicious int) (int, bool) {
	n := malicious + suspicious
	if n <= 0 {
		return 0, false
	}
	return min(40, 5*n), true
}

// AbuseIPDBVote derives a vote from the abuse confidence score (0-100).
func AbuseIPDBVote(confidence int) (int, bool) {
	if confidence <= 0 {
		return 0, false
	}
	return min(50, confidence), true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
