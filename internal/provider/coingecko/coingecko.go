package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"quotefeed/internal/httpx"
	"quotefeed/internal/provider"
)

// Config controls the CoinGecko adapter, the cross-exchange crypto
// aggregator. It works without a credential; a demo API key is attached
// as a header when present.
type Config struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "coingecko"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = provider.DefaultTimeout
	}
	if hc == nil {
		hc = httpx.New(cfg.Timeout)
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch queries /simple/price for one coin id. The payload is keyed by
// coin id: {"bitcoin":{"usd":97000.5,"usd_24h_change":1.23}}.
func (p *Provider) Fetch(ctx context.Context, providerID string) (*provider.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("ids", providerID)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	endpoint := fmt.Sprintf("%s/simple/price?%s", p.cfg.BaseURL, q.Encode())

	var headers map[string]string
	if p.cfg.APIKey != "" {
		headers = map[string]string{"x-cg-demo-api-key": p.cfg.APIKey}
	}

	body := map[string]map[string]float64{}
	if err := p.client.GetJSON(ctx, endpoint, headers, &body); err != nil {
		return nil, fmt.Errorf("coingecko: %w", err)
	}

	coin, ok := body[providerID]
	if !ok {
		return nil, fmt.Errorf("coingecko: unknown coin id %q", providerID)
	}
	last := coin["usd"]
	if !provider.ValidPrice(last) {
		return nil, fmt.Errorf("coingecko: no usable price for %q", providerID)
	}

	out := &provider.Quote{
		Last:       last,
		FetchedAt:  time.Now().UTC(),
		Source:     p.cfg.Name,
		Convention: provider.ConventionAggregate,
	}
	if pct, ok := coin["usd_24h_change"]; ok && pct > -100 {
		// The aggregator reports 24h change; derive the implied previous
		// close so change math matches the other feeds.
		prev := last / (1 + pct/100)
		if provider.ValidPrice(prev) {
			out.PrevClose = provider.Float(prev)
			out.ChangePct = pct
			out.Change = last - prev
		}
	}
	return out, nil
}
