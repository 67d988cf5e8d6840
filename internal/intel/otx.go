package intel

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/pkg/httpclient"
)

// OTX queries AlienVault Open Threat Exchange.
type OTX struct {
	client *httpclient.Client
}

type otxGeneral struct {
	PulseInfo struct {
		Pulses []json.RawMessage `json:"pulses"`
	} `json:"pulse_info"`
}

// NewOTX creates an AlienVault OTX provider authenticated with apiKey.
func NewOTX(apiKey, baseURL string, opts ...httpclient.Option) *OTX {
	opts = append([]httpclient.Option{httpclient.WithHeader("X-OTX-API-KEY", apiKey)}, opts...)
	return &OTX{client: httpclient.New(baseURL, opts...)}
}

// Name implements Provider.
func (o *OTX) Name() string { return "otx" }

// Lookup fetches the general section for an IPv4 indicator and votes on its pulse count.
func (o *OTX) Lookup(ctx context.Context, indicator string) domain.ProviderVerdict {
	var body otxGeneral
	raw, err := o.client.GetJSON(ctx, "/api/v1/indicators/IPv4/"+url.PathEscape(indicator)+"/general", nil, &body)
	if err != nil {
		return Failed(o.Name(), err)
	}
	vote, ok := OTXVote(len(body.PulseInfo.Pulses))
	return verdictFor(o.Name(), raw, vote, ok)
}
