package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/V4T54L/alert-triage/internal/domain"
)

// TicketTitle renders the subject line used for both tickets and emails.
func TicketTitle(category domain.Category, ev domain.CanonicalEvent) string {
	eventType := ev.EventType
	if eventType == "" {
		eventType = "event"
	}
	source := ev.Source
	if source == "" {
		source = domain.UnknownSource
	}
	return fmt.Sprintf("[%s] %s – %s", category, eventType, source)
}

// Summary renders the plain-text body attached to tickets and emails.
func Summary(ev domain.CanonicalEvent, a domain.Analysis) string {
	iocs, _ := json.Marshal(a.IOCs)

	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", ev.Source)
	fmt.Fprintf(&b, "Type: %s  Severity: %d\n", ev.EventType, ev.Severity)
	fmt.Fprintf(&b, "Timestamp: %s\n", ev.Timestamp)
	fmt.Fprintf(&b, "Message: %s\n", ev.Message)
	fmt.Fprintf(&b, "IOCs: %s\n", iocs)
	fmt.Fprintf(&b, "Scores: base=%d intel=%d final=%d\n", a.Scores.Base, a.Scores.Intel, a.Scores.Final)
	fmt.Fprintf(&b, "Recommended action: %s", a.Action)
	for _, ip := range a.Intel.IPs {
		fmt.Fprintf(&b, "\nIntel: %s -> %s (score %d)", ip.Indicator, strings.Join(ip.Labels, ","), ip.Score)
	}
	return b.String()
}
