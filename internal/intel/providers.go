package intel

import (
	"github.com/V4T54L/alert-triage/internal/pkg/config"
	"github.com/V4T54L/alert-triage/internal/pkg/httpclient"
)

// ProvidersFromConfig returns the providers whose API key is configured,
// in a fixed order: otx, virustotal, abuseipdb.
func ProvidersFromConfig(cfg config.IntelConfig) []Provider {
	opts := []httpclient.Option{httpclient.WithTimeout(cfg.HTTPTimeout)}

	var providers []Provider
	if cfg.OTXAPIKey != "" {
		providers = append(providers, NewOTX(cfg.OTXAPIKey, cfg.OTXBaseURL, opts...))
	}
	if cfg.VTAPIKey != "" {
		providers = append(providers, NewVirusTotal(cfg.VTAPIKey, cfg.VTBaseURL, opts...))
	}
	if cfg.AbuseIPDBAPIKey != "" {
		providers = append(providers, NewAbuseIPDB(cfg.AbuseIPDBAPIKey, cfg.AbuseIPDBBaseURL, opts...))
	}

	for i, p := range providers {
		providers[i] = RateLimited(p, cfg.RateLimitPerMin)
	}
	return providers
}
