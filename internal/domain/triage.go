package domain

import (
	"encoding/json"
	"time"
)

// Category is the triage severity bucket derived from the final score.
type Category string

const (
	CategoryLow    Category = "LOW"
	CategoryMedium Category = "MEDIUM"
	CategoryHigh   Category = "HIGH"
)

// Action is the recommended follow-up for a category.
type Action string

const (
	ActionNone   Action = "none"
	ActionEmail  Action = "email"
	ActionTicket Action = "ticket"
)

// Scores carries the three score components of a triage decision, each in [0, 100].
type Scores struct {
	Base  int `json:"base"`
	Intel int `json:"intel"`
	Final int `json:"final"`
}

// ScoreResult is produced once per event and never mutated afterwards.
type ScoreResult struct {
	Scores   Scores   `json:"scores"`
	Category Category `json:"category"`
	Action   Action   `json:"action"`
}

// IntelDetails groups the enrichment results by indicator kind.
type IntelDetails struct {
	IPs []IntelResult `json:"ips"`
}

// Analysis is the output of the normalize, extract, enrich and score pipeline.
type Analysis struct {
	IOCs  IOCSet       `json:"iocs"`
	Intel IntelDetails `json:"intel"`
	ScoreResult
}

// ActionStatus reports the outcome of a notification or ticketing call.
// A failed action never changes the computed category or score.
type ActionStatus struct {
	OK       bool            `json:"ok"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Keys used in TriageResult.Actions.
const (
	ActionKeyTicket = "ticket"
	ActionKeyEmail  = "email"
)

// TriageResult is returned to the webhook caller.
type TriageResult struct {
	ID       string                  `json:"id"`
	Event    CanonicalEvent          `json:"event"`
	Analysis Analysis                `json:"analysis"`
	Actions  map[string]ActionStatus `json:"actions"`
}

// Decision is the record published to the decision feed once an event has been triaged.
type Decision struct {
	ID         string                  `json:"id"`
	ReceivedAt time.Time               `json:"received_at"`
	Source     string                  `json:"source"`
	EventType  string                  `json:"event_type"`
	Severity   int                     `json:"severity"`
	Message    string                  `json:"message,omitempty"`
	Analysis   Analysis                `json:"analysis"`
	Actions    map[string]ActionStatus `json:"actions,omitempty"`
	Raw        RawEvent                `json:"raw,omitempty"`
}
