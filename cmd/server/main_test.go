package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quotefeed/internal/config"
	"quotefeed/internal/fallback"
	"quotefeed/internal/provider"
	"quotefeed/internal/provider/ratelimit"
	"quotefeed/internal/quotes"
)

// offlineService has no providers wired, so every known symbol resolves
// through the static fallback table. Keeps handler tests off the network.
func offlineService() *quotes.Service {
	return quotes.NewService(nil, fallback.New(nil, nil, nil), nil, nil, nil)
}

func TestQuoteHandler_StaticFallback(t *testing.T) {
	mux := newMux(offlineService())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quote?symbol=XAUUSD", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var r quotes.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !r.Available || r.Quote == nil || r.Quote.Source != "static" || !r.Quote.Stale {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.Quote.Last <= 0 {
		t.Fatalf("available quote with non-positive price: %+v", r.Quote)
	}
}

func TestQuoteHandler_MissingSymbol(t *testing.T) {
	mux := newMux(offlineService())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quote", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestQuotesHandler_BatchIncludesEverySymbol(t *testing.T) {
	mux := newMux(offlineService())

	body := strings.NewReader(`{"symbols":["BTCUSD","EURUSD","XYZ"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/quotes", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Quotes map[string]quotes.Result `json:"quotes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Quotes) != 3 {
		t.Fatalf("want 3 entries, got %d: %v", len(resp.Quotes), resp.Quotes)
	}
	if resp.Quotes["XYZ"].Available {
		t.Fatalf("XYZ should be unavailable: %+v", resp.Quotes["XYZ"])
	}
	if resp.Quotes["XYZ"].Reason == "" {
		t.Fatal("unavailable entry must carry a reason")
	}
}

func TestQuotesHandler_TooManySymbols(t *testing.T) {
	mux := newMux(offlineService())

	syms := make([]string, 0, quotes.MaxBatchSymbols+1)
	for i := 0; i <= quotes.MaxBatchSymbols; i++ {
		syms = append(syms, "SYM"+strings.Repeat("X", i%5)+string(rune('A'+i%26)))
	}
	b, _ := json.Marshal(map[string]any{"symbols": syms})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/quotes", strings.NewReader(string(b))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestStatuszHandler(t *testing.T) {
	svc := offlineService()
	mux := newMux(svc)

	// one request so the counters are non-zero
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quote?symbol=BTCUSD", nil))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/statusz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap struct {
		Requests int64 `json:"requests"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Requests != 1 {
		t.Fatalf("requests = %d, want 1", snap.Requests)
	}
}

func TestContextHandler(t *testing.T) {
	mux := newMux(offlineService())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/context?symbols=XAUUSD,ZZZUNKNOWN", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var pc quotes.PromptContext
	if err := json.Unmarshal(rec.Body.Bytes(), &pc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pc.Instruments) != 2 || pc.Disclaimer == "" {
		t.Fatalf("unexpected context: %+v", pc)
	}
}

func TestDecorate(t *testing.T) {
	base := fallbackFake{}

	if p := decorate(base, config.Provider{MaxRequestsPerMinute: 30, Burst: 2}); p == base {
		t.Fatal("rpm config should wrap with a token bucket")
	} else if _, ok := p.(*ratelimit.TokenBucketProvider); !ok {
		t.Fatalf("want token bucket wrapper, got %T", p)
	}

	if p := decorate(base, config.Provider{MinRequestIntervalSec: 1}); p == base {
		t.Fatal("interval config should wrap with a min-interval gate")
	} else if _, ok := p.(*ratelimit.MinInterval); !ok {
		t.Fatalf("want min-interval wrapper, got %T", p)
	}

	if p := decorate(base, config.Provider{}); p != base {
		t.Fatalf("no pacing config should leave the adapter bare, got %T", p)
	}
}

type fallbackFake struct{}

func (fallbackFake) Name() string { return "fake" }
func (fallbackFake) Fetch(ctx context.Context, providerID string) (*provider.Quote, error) {
	return nil, nil
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" BTCUSD, ,EURUSD ,")
	if len(got) != 2 || got[0] != "BTCUSD" || got[1] != "EURUSD" {
		t.Fatalf("unexpected: %v", got)
	}
}
