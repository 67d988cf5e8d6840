package normalize

import (
	"regexp"
	"strings"

	"github.com/V4T54L/alert-triage/internal/domain"
)

// fromIPPattern finds "from <dotted-quad>" in free-text sshd/pam log lines.
var fromIPPattern = regexp.MustCompile(`\bfrom\s+(\d{1,3}(?:\.\d{1,3}){3})\b`)

func isWazuh(raw domain.RawEvent) bool {
	return object(raw["rule"]) != nil && object(raw["agent"]) != nil
}

func mapWazuh(f *fields, raw domain.RawEvent) domain.CanonicalEvent {
	rule := object(raw["rule"])
	data := object(raw["data"])
	if data == nil {
		data = map[string]any{}
	}

	description := f.text("rule.description", rule["description"])
	eventType := f.id("rule.id", rule["id"])
	if strings.Contains(strings.ToLower(description), "authentication failed") {
		eventType = authFailed
	} else if eventType == "" {
		eventType = domain.UnknownSource
	}

	ip := f.text("data.srcip", firstPresent(data, "srcip"))
	if ip == "" {
		ip = f.text("srcip", raw["srcip"])
	}
	if ip == "" {
		if line, ok := raw["full_log"].(string); ok {
			if m := fromIPPattern.FindStringSubmatch(line); m != nil {
				ip = m[1]
			}
		}
	}

	username := f.text("data.srcuser", data["srcuser"])
	if username == "" {
		username = f.text("srcuser", raw["srcuser"])
	}

	return domain.CanonicalEvent{
		Source:    VendorWazuh,
		EventType: eventType,
		Severity:  f.severity("rule.level", rule["level"]),
		Timestamp: f.text("@timestamp", firstPresent(raw, "@timestamp", "timestamp")),
		Message:   description,
		IP:        ip,
		Username:  username,
		DstIP:     f.text("data.dstip", data["dstip"]),
	}
}
