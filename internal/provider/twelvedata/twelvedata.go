package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quotefeed/internal/provider"
)

const defaultBaseURL = "https://api.twelvedata.com"

// Provider fetches broker-spot FX/metals quotes from the Twelve Data
// /quote endpoint. All numeric fields arrive as strings on the wire.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	timeout time.Duration
	client  provider.Doer
}

// Option is a configuration option for the Twelve Data provider.
type Option func(*Provider)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client provider.Doer) Option {
	return func(p *Provider) { p.client = client }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

func New(apiKey string, options ...Option) *Provider {
	p := &Provider{
		name:    "twelvedata",
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		timeout: provider.DefaultTimeout,
		client:  http.DefaultClient,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *Provider) Name() string { return p.name }

// quoteResponse covers both the quote payload and the error envelope
// Twelve Data returns with HTTP 200 (code + status + message).
type quoteResponse struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`

	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Close         string `json:"close"`
	PreviousClose string `json:"previous_close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
}

func (p *Provider) Fetch(ctx context.Context, providerID string) (*provider.Quote, error) {
	if p.apiKey == "" {
		return nil, errors.New("twelvedata: api key not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("symbol", providerID)
	q.Set("apikey", p.apiKey)
	endpoint := fmt.Sprintf("%s/quote?%s", p.baseURL, q.Encode())

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
		return nil, fmt.Errorf("twelvedata: GET /quote -> %d: %s", resp.StatusCode, string(b))
	}

	var api quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("twelvedata: decode: %w", err)
	}
	if api.Status == "error" || api.Code != 0 {
		return nil, fmt.Errorf("twelvedata: provider error: code=%d msg=%q", api.Code, api.Message)
	}

	last, ok := parsePrice(api.Close)
	if !ok {
		return nil, fmt.Errorf("twelvedata: no usable price for %q", providerID)
	}

	out := &provider.Quote{
		Name:       api.Name,
		Last:       last,
		FetchedAt:  time.Now().UTC(),
		Source:     p.name,
		Convention: provider.ConventionSpot,
	}
	if v, ok := parsePrice(api.Open); ok {
		out.Open = provider.Float(v)
	}
	if v, ok := parsePrice(api.High); ok {
		out.High = provider.Float(v)
	}
	if v, ok := parsePrice(api.Low); ok {
		out.Low = provider.Float(v)
	}
	if v, ok := parsePrice(api.PreviousClose); ok {
		out.PrevClose = provider.Float(v)
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(api.Change), 64); err == nil {
		out.Change = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(api.PercentChange), 64); err == nil {
		out.ChangePct = v
	}
	provider.FillChange(out)
	return out, nil
}

// parsePrice parses a wire string and applies the same sanity filter as
// the numeric feeds: empty, unparsable, or non-positive values are misses.
func parsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !provider.ValidPrice(v) {
		return 0, false
	}
	return v, true
}
