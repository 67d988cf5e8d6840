package normalize

import (
	"strings"

	"github.com/V4T54L/alert-triage/internal/domain"
)

func isCrowdStrike(raw domain.RawEvent) bool {
	_, hasType := raw["eventType"]
	_, hasName := raw["Name"]
	return hasType || hasName
}

func mapCrowdStrike(f *fields, raw domain.RawEvent) domain.CanonicalEvent {
	name := f.text("Name", raw["Name"])
	kind := f.text("eventType", raw["eventType"])
	if kind == "" {
		kind = name
	}

	lowered := strings.ToLower(kind)
	eventType := lowered
	switch {
	case strings.Contains(lowered, "authfail"), strings.Contains(lowered, "authentication failed"):
		eventType = authFailed
	case lowered == "":
		eventType = domain.UnknownSource
	}

	localIP := f.text("LocalIP", raw["LocalIP"])
	remoteIP := f.text("RemoteIP", raw["RemoteIP"])
	ip := localIP
	if ip == "" {
		ip = remoteIP
	}

	return domain.CanonicalEvent{
		Source:    VendorCrowdStrike,
		EventType: eventType,
		Severity:  f.severity("Severity", raw["Severity"]),
		Timestamp: f.id("Timestamp", raw["Timestamp"]),
		Message:   name,
		IP:        ip,
		Username:  f.text("UserName", raw["UserName"]),
		SrcIP:     remoteIP,
		HostIP:    localIP,
	}
}
