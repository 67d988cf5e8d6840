// Package normalize maps vendor-shaped alert payloads onto domain.CanonicalEvent.
//
// Vendor detection is an ordered list of (match, mapper) variants evaluated in
// priority order; the first match wins and the generic pass-through mapper
// terminates the list. New vendors are added by appending a variant.
package normalize

import (
	"strings"

	"github.com/V4T54L/alert-triage/internal/domain"
)

// Vendor tags.
const (
	VendorWazuh       = "wazuh"
	VendorCrowdStrike = "crowdstrike"
	VendorGeneric     = "generic"
)

type variant struct {
	name  string
	match func(raw domain.RawEvent) bool
	apply func(f *fields, raw domain.RawEvent) domain.CanonicalEvent
}

// Normalizer selects a vendor variant for a payload and applies its mapping.
type Normalizer struct {
	variants []variant
	fallback variant
}

// New returns a Normalizer with the Wazuh and CrowdStrike variants, falling back to generic pass-through.
func New() *Normalizer {
	return &Normalizer{
		variants: []variant{
			{name: VendorWazuh, match: isWazuh, apply: mapWazuh},
			{name: VendorCrowdStrike, match: isCrowdStrike, apply: mapCrowdStrike},
		},
		fallback: variant{name: VendorGeneric, match: func(domain.RawEvent) bool { return true }, apply: mapGeneric},
	}
}

// Vendor reports which variant would handle raw.
func (n *Normalizer) Vendor(raw domain.RawEvent) string {
	return n.pick(raw).name
}

// Normalize maps raw onto the canonical schema. It never fails: values that
// cannot be coerced fall back to their documented defaults.
func (n *Normalizer) Normalize(raw domain.RawEvent) domain.CanonicalEvent {
	ev, _ := n.normalize(raw)
	return ev
}

// NormalizeStrict behaves like Normalize but reports every field that had to be
// defaulted because its value did not fit the canonical schema.
func (n *Normalizer) NormalizeStrict(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	ev, f := n.normalize(raw)
	if len(f.errs) > 0 {
		return ev, &ValidationError{Vendor: n.pick(raw).name, Fields: f.errs}
	}
	return ev, nil
}

func (n *Normalizer) normalize(raw domain.RawEvent) (domain.CanonicalEvent, *fields) {
	if raw == nil {
		raw = domain.RawEvent{}
	}
	f := &fields{}
	ev := n.pick(raw).apply(f, raw)
	if ev.Source == "" {
		ev.Source = domain.UnknownSource
	}
	ev.EventType = strings.ToLower(ev.EventType)
	if ev.Severity < 0 {
		ev.Severity = 0
	}
	ev.Raw = raw
	return ev, f
}

func (n *Normalizer) pick(raw domain.RawEvent) variant {
	for _, v := range n.variants {
		if v.match(raw) {
			return v
		}
	}
	return n.fallback
}

const authFailed = "auth_failed"

// mapGeneric copies the fields whose names already match the canonical schema.
func mapGeneric(f *fields, raw domain.RawEvent) domain.CanonicalEvent {
	return domain.CanonicalEvent{
		Source:     f.text("source", raw["source"]),
		EventType:  f.text("event_type", raw["event_type"]),
		Severity:   f.severity("severity", raw["severity"]),
		Timestamp:  f.text("timestamp", raw["timestamp"]),
		Message:    f.text("message", raw["message"]),
		IP:         f.text("ip", raw["ip"]),
		Username:   f.text("username", raw["username"]),
		SrcIP:      f.text("src_ip", raw["src_ip"]),
		DstIP:      f.text("dst_ip", raw["dst_ip"]),
		AttackerIP: f.text("attacker_ip", raw["attacker_ip"]),
		HostIP:     f.text("host_ip", raw["host_ip"]),
	}
}
