// Package ioc pulls indicators of compromise out of canonical events.
package ioc

import (
	"net/netip"
	"regexp"
	"sort"

	"github.com/V4T54L/alert-triage/internal/domain"
)

var (
	// Octets are unconstrained here; IsIPv4 does the range check.
	ipPattern     = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	domainPattern = regexp.MustCompile(`\b(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}\b`)
)

// Extract collects IPv4 addresses and domain names from ev.
// It performs no I/O and always returns non-nil, sorted, deduplicated slices.
func Extract(ev domain.CanonicalEvent) domain.IOCSet {
	ips := make(map[string]struct{})
	for _, candidate := range ev.IPFields() {
		if IsIPv4(candidate) {
			ips[candidate] = struct{}{}
		}
	}
	for _, candidate := range ipPattern.FindAllString(ev.Message, -1) {
		if IsIPv4(candidate) {
			ips[candidate] = struct{}{}
		}
	}

	domains := make(map[string]struct{})
	for _, d := range domainPattern.FindAllString(ev.Message, -1) {
		domains[d] = struct{}{}
	}

	return domain.IOCSet{
		IPs:     sortedKeys(ips),
		Domains: sortedKeys(domains),
	}
}

// IsIPv4 reports whether s is exactly a dotted-quad IPv4 address:
// four decimal octets in 0-255, no leading zeros, nothing around them.
func IsIPv4(s string) bool {
	if s == "" {
		return false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Is4() && addr.String() == s
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
