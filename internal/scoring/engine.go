// Package scoring turns a canonical event and its intel signal into a triage decision.
package scoring

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/pkg/config"
)

const severityWeight = 6

// RuleWeights is the fixed contribution of each known event type to the base score.
var RuleWeights = map[string]int{
	"auth_failed":          15,
	"multiple_auth_failed": 25,
	"malware_detected":     40,
	"ransomware":           60,
	"port_scan":            15,
	"bruteforce":           35,
	"geo_anomaly":          20,
	"privilege_escalation": 50,
	"lateral_movement":     45,
	"exfil":                55,
}

// Contextual keys read from the raw payload.
const (
	keyFailCount    = "fail_count"
	keyGeo          = "geo"
	keyNewAdminUser = "new_admin_user"
	keyNestedRaw    = "raw"
)

const (
	failCountThreshold = 5
	failCountBoostCap  = 20
	geoBoost           = 10
	newAdminBoost      = 25
)

// Engine computes scores. It is immutable after construction and safe for concurrent use.
type Engine struct {
	highRiskGeos map[string]struct{}
	classifier   Classifier
}

// NewEngine builds an Engine from scoring configuration.
func NewEngine(cfg config.ScoringConfig) (*Engine, error) {
	classifier, err := NewClassifier(cfg.High, cfg.Medium)
	if err != nil {
		return nil, err
	}
	geos := make(map[string]struct{}, len(cfg.HighRiskGeos))
	for _, g := range cfg.HighRiskGeos {
		if g = strings.TrimSpace(g); g != "" {
			geos[strings.ToUpper(g)] = struct{}{}
		}
	}
	return &Engine{highRiskGeos: geos, classifier: classifier}, nil
}

// Score computes base, intel and final scores for ev and classifies the result.
// intel is the highest intel score observed across the event's indicators.
func (e *Engine) Score(ev domain.CanonicalEvent, intel int) domain.ScoreResult {
	base := e.Base(ev)
	intel = clamp(intel)
	final := Final(base, intel)
	category, action := e.classifier.Classify(final)
	return domain.ScoreResult{
		Scores:   domain.Scores{Base: base, Intel: intel, Final: final},
		Category: category,
		Action:   action,
	}
}

// Base returns the event's intrinsic score in [0, 100].
func (e *Engine) Base(ev domain.CanonicalEvent) int {
	score := min(100, min(max(ev.Severity, 0), 100)*severityWeight)
	score += RuleWeights[strings.ToLower(ev.EventType)]

	if n, ok := asInt(contextValue(ev.Raw, keyFailCount)); ok && n >= failCountThreshold {
		score += min(failCountBoostCap, 3*(n/failCountThreshold))
	}
	if geo, ok := contextValue(ev.Raw, keyGeo).(string); ok {
		if _, risky := e.highRiskGeos[strings.ToUpper(strings.TrimSpace(geo))]; risky {
			score += geoBoost
		}
	}
	if truthy(contextValue(ev.Raw, keyNewAdminUser)) {
		score += newAdminBoost
	}
	return clamp(score)
}

// Final combines base and intel as round(0.6*base + 0.4*intel), clamped to [0, 100].
func Final(base, intel int) int {
	// 6b+4i is always even, so the tenths digit is never exactly 5 and
	// integer rounding matches float rounding without representation error.
	return clamp((6*clamp(base) + 4*clamp(intel) + 5) / 10)
}

// MaxIntel returns the highest score in results, 0 when empty.
func MaxIntel(results []domain.IntelResult) int {
	best := 0
	for _, r := range results {
		best = max(best, r.Score)
	}
	return clamp(best)
}

func contextValue(raw domain.RawEvent, key string) any {
	if v, ok := raw[key]; ok {
		return v
	}
	switch nested := raw[keyNestedRaw].(type) {
	case map[string]any:
		return nested[key]
	case domain.RawEvent:
		return nested[key]
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return saturate(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return saturate(f)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// saturate converts f to an int, clamping values beyond the int range.
func saturate(f float64) (int, bool) {
	switch {
	case math.IsNaN(f):
		return 0, false
	case f >= float64(math.MaxInt):
		return math.MaxInt, true
	case f <= float64(math.MinInt):
		return math.MinInt, true
	}
	return int(f), true
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
		return b != ""
	}
	if n, ok := asInt(v); ok {
		return n != 0
	}
	return true
}

func clamp(v int) int {
	return max(0, min(100, v))
}
