package intel

import (
	"context"
	"net/url"

	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/pkg/httpclient"
)

// VirusTotal queries the VirusTotal v3 IP address report.
type VirusTotal struct {
	client *httpclient.Client
}

type vtIPReport struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
			} `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// NewVirusTotal creates a VirusTotal v3 provider authenticated with apiKey.
func NewVirusTotal(apiKey, baseURL string, opts ...httpclient.Option) *VirusTotal {
	opts = append([]httpclient.Option{httpclient.WithHeader("x-apikey", apiKey)}, opts...)
	return &VirusTotal{client: httpclient.New(baseURL, opts...)}
}

// Name implements Provider.
func (v *VirusTotal) Name() string { return "virustotal" }

// Lookup fetches the IP address report and votes on its last-analysis malicious and
// suspicious counts.
func (v *VirusTotal) Lookup(ctx context.Context, indicator string) domain.ProviderVerdict {
	var report vtIPReport
	raw, err := v.client.GetJSON(ctx, "/api/v3/ip_addresses/"+url.PathEscape(indicator), nil, &report)
	if err != nil {
		return Failed(v.Name(), err)
	}
	stats := report.Data.Attributes.LastAnalysisStats
	vote, ok := VirusTotalVote(stats.Malicious, stats.Suspicious)
	return verdictFor(v.Name(), raw, vote, ok)
}
