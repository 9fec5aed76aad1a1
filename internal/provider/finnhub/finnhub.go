package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"quotefeed/internal/provider"
)

// Config controls the Finnhub adapter. Finnhub is the general-purpose
// equities/indices feed and the futures proxy for commodities; its
// identifier format accepts plain tickers.
type Config struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Provider struct {
	cfg    Config
	client provider.Doer
}

func New(cfg Config, client provider.Doer) *Provider {
	if cfg.Name == "" {
		cfg.Name = "finnhub"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://finnhub.io/api/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = provider.DefaultTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

// quoteResponse is Finnhub's /quote payload. A symbol Finnhub does not
// know comes back as all zeros with HTTP 200.
type quoteResponse struct {
	Current   float64 `json:"c"`
	Change    float64 `json:"d"`
	ChangePct float64 `json:"dp"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Open      float64 `json:"o"`
	PrevClose float64 `json:"pc"`
	Timestamp int64   `json:"t"`
}

func (p *Provider) Fetch(ctx context.Context, providerID string) (*provider.Quote, error) {
	if p.cfg.APIKey == "" {
		return nil, errors.New("finnhub: api key not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("symbol", providerID)
	q.Set("token", p.cfg.APIKey)
	endpoint := fmt.Sprintf("%s/quote?%s", p.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("finnhub: GET /quote -> %d: %s", resp.StatusCode, string(b))
	}

	var api quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("finnhub: decode: %w", err)
	}
	if !provider.ValidPrice(api.Current) {
		return nil, fmt.Errorf("finnhub: no usable price for %q", providerID)
	}

	out := &provider.Quote{
		Last:       api.Current,
		Change:     api.Change,
		ChangePct:  api.ChangePct,
		FetchedAt:  time.Now().UTC(),
		Source:     p.cfg.Name,
		Convention: provider.ConventionOfficial,
	}
	if provider.ValidPrice(api.Open) {
		out.Open = provider.Float(api.Open)
	}
	if provider.ValidPrice(api.High) {
		out.High = provider.Float(api.High)
	}
	if provider.ValidPrice(api.Low) {
		out.Low = provider.Float(api.Low)
	}
	if provider.ValidPrice(api.PrevClose) {
		out.PrevClose = provider.Float(api.PrevClose)
	}
	provider.FillChange(out)
	return out, nil
}
