package domain

// RawEvent is an untyped, vendor-shaped alert payload as decoded from the webhook body.
type RawEvent map[string]any

// UnknownSource is the source tag used when a payload does not name its vendor.
const UnknownSource = "unknown"

// CanonicalEvent is the vendor-agnostic representation of an alert used throughout the pipeline.
// Empty optional fields mean "not present in the payload".
type CanonicalEvent struct {
	Source     string   `json:"source"`
	EventType  string   `json:"event_type"`
	Severity   int      `json:"severity"`
	Timestamp  string   `json:"timestamp,omitempty"`
	Message    string   `json:"message,omitempty"`
	IP         string   `json:"ip,omitempty"`
	Username   string   `json:"username,omitempty"`
	SrcIP      string   `json:"src_ip,omitempty"`
	DstIP      string   `json:"dst_ip,omitempty"`
	AttackerIP string   `json:"attacker_ip,omitempty"`
	HostIP     string   `json:"host_ip,omitempty"`
	Raw        RawEvent `json:"-"`
}

// IPFields returns the IP-bearing fields of the event in a fixed order.
func (e CanonicalEvent) IPFields() []string {
	return []string{e.IP, e.SrcIP, e.DstIP, e.AttackerIP, e.HostIP}
}

// IOCSet holds the indicators extracted from a single event.
// Both slices are deduplicated and sorted.
type IOCSet struct {
	IPs     []string `json:"ips"`
	Domains []string `json:"domains"`
}
