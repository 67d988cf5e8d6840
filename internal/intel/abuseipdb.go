package intel

import (
	"context"
	"net/url"

	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/pkg/httpclient"
)

// Reports older than this are ignored by AbuseIPDB when computing confidence.
const abuseIPDBMaxAgeDays = "90"

// AbuseIPDB queries the AbuseIPDB v2 check endpoint.
type AbuseIPDB struct {
	client *httpclient.Client
}

type abuseCheck struct {
	Data struct {
		AbuseConfidenceScore int `json:"abuseConfidenceScore"`
	} `json:"data"`
}

// NewAbuseIPDB creates an AbuseIPDB v2 provider authenticated with apiKey.
func NewAbuseIPDB(apiKey, baseURL string, opts ...httpclient.Option) *AbuseIPDB {
	opts = append([]httpclient.Option{httpclient.WithHeader("Key", apiKey)}, opts...)
	return &AbuseIPDB{client: httpclient.New(baseURL, opts...)}
}

// Name implements Provider.
func (a *AbuseIPDB) Name() string { return "abuseipdb" }

// Lookup checks the address against reports from the last 90 days
// and votes on the abuse confidence score.
func (a *AbuseIPDB) Lookup(ctx context.Context, indicator string) domain.ProviderVerdict {
	query := url.Values{}
	query.Set("ipAddress", indicator)
	query.Set("maxAgeInDays", abuseIPDBMaxAgeDays)

	var check abuseCheck
	raw, err := a.client.GetJSON(ctx, "/api/v2/check", query, &check)
	if err != nil {
		return Failed(a.Name(), err)
	}
	vote, ok := AbuseIPDBVote(check.Data.AbuseConfidenceScore)
	return verdictFor(a.Name(), raw, vote, ok)
}
