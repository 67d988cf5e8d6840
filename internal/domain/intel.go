package domain

import "encoding/json"

// VerdictStatus tells how a single provider call ended.
type VerdictStatus string

const (
	VerdictVote   VerdictStatus = "vote"
	VerdictNoVote VerdictStatus = "no_vote"
	VerdictError  VerdictStatus = "error"
)

// Intel labels derived from the aggregated score.
const (
	LabelMalicious  = "malicious"
	LabelSuspicious = "suspicious"
	LabelUnknown    = "unknown"
)

// ProviderVerdict is the result of one (provider, indicator) lookup.
// Vote is only meaningful when Status is VerdictVote.
type ProviderVerdict struct {
	Provider string          `json:"provider"`
	Status   VerdictStatus   `json:"status"`
	Vote     int             `json:"vote,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// IntelResult is the aggregated threat-intelligence view of one indicator.
type IntelResult struct {
	Indicator string                     `json:"indicator"`
	Sources   map[string]ProviderVerdict `json:"sources"`
	Score     int                        `json:"score"`
	Labels    []string                   `json:"labels"`
}

// LabelFor maps an aggregated intel score to its label.
func LabelFor(score int) string {
	switch {
	case score >= 70:
		return LabelMalicious
	case score >= 40:
		return LabelSuspicious
	default:
		return LabelUnknown
	}
}
