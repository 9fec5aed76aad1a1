package fallback

import (
	"context"
	"errors"
	"testing"

	"quotefeed/internal/provider"
	"quotefeed/internal/symbols"
)

type fakeProvider struct {
	name   string
	quote  *provider.Quote
	err    error
	calls  int
	lastID string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, providerID string) (*provider.Quote, error) {
	f.calls++
	f.lastID = providerID
	if f.err != nil {
		return nil, f.err
	}
	q := *f.quote
	return &q, nil
}

func goldMapping() symbols.Mapping {
	return symbols.Mapping{
		Symbol: "XAUUSD", Name: "Gold Spot", Class: symbols.ClassSpotFX, Decimals: 2,
		Preferred:   "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "XAU/USD", "finnhub": "OANDA:XAU_USD"},
	}
}

func TestFetch_PreferredSpotProviderWins(t *testing.T) {
	spot := &fakeProvider{name: "twelvedata", quote: &provider.Quote{Last: 2655.30, Source: "twelvedata", Convention: provider.ConventionSpot}}
	general := &fakeProvider{name: "finnhub", quote: &provider.Quote{Last: 2656.00, Source: "finnhub"}}
	o := New([]provider.Provider{spot, general}, nil, nil)

	q := o.Fetch(context.Background(), goldMapping())
	if q == nil {
		t.Fatal("want quote")
	}
	if q.Source != "twelvedata" || q.Last != 2655.30 {
		t.Fatalf("spot symbol must come from the preferred spot feed: %+v", q)
	}
	if general.calls != 0 {
		t.Fatalf("lower-priority provider called %d times despite preferred success", general.calls)
	}
	if spot.lastID != "XAU/USD" {
		t.Fatalf("provider got wrong identifier %q", spot.lastID)
	}
}

func TestFetch_FallsThroughOnMiss(t *testing.T) {
	spot := &fakeProvider{name: "twelvedata", err: errors.New("timeout")}
	general := &fakeProvider{name: "finnhub", quote: &provider.Quote{Last: 2656.00, Source: "finnhub"}}
	o := New([]provider.Provider{spot, general}, nil, nil)

	q := o.Fetch(context.Background(), goldMapping())
	if q == nil || q.Source != "finnhub" {
		t.Fatalf("want finnhub fallback, got %+v", q)
	}
	if spot.calls != 1 {
		t.Fatalf("preferred provider tried %d times, want 1", spot.calls)
	}
}

func TestFetch_AllExhaustedReturnsNil(t *testing.T) {
	spot := &fakeProvider{name: "twelvedata", err: errors.New("down")}
	general := &fakeProvider{name: "finnhub", err: errors.New("down")}
	o := New([]provider.Provider{spot, general}, nil, nil)

	if q := o.Fetch(context.Background(), goldMapping()); q != nil {
		t.Fatalf("want nil after exhaustion, got %+v", q)
	}
}

func TestFetch_SkipsUnregisteredAndUnmappedProviders(t *testing.T) {
	// Only finnhub is configured; the crypto order lists coingecko and
	// twelvedata ahead of it, and the mapping has no twelvedata id.
	general := &fakeProvider{name: "finnhub", quote: &provider.Quote{Last: 97000, Source: "finnhub"}}
	o := New([]provider.Provider{general}, nil, nil)

	m := symbols.Mapping{
		Symbol: "BTCUSD", Class: symbols.ClassCrypto, Decimals: 2,
		ProviderIDs: map[string]string{"finnhub": "BINANCE:BTCUSDT"},
	}
	q := o.Fetch(context.Background(), m)
	if q == nil || q.Source != "finnhub" {
		t.Fatalf("want quote from the only wired provider, got %+v", q)
	}
}

func TestFetch_StampsMappingMetadata(t *testing.T) {
	spot := &fakeProvider{name: "twelvedata", quote: &provider.Quote{Last: 2655.30, Source: "twelvedata"}}
	o := New([]provider.Provider{spot}, nil, nil)

	q := o.Fetch(context.Background(), goldMapping())
	if q.Symbol != "XAUUSD" || q.Name != "Gold Spot" || q.Class != symbols.ClassSpotFX || q.Decimals != 2 {
		t.Fatalf("mapping metadata not stamped: %+v", q)
	}
}

func TestFetch_CanceledContextStopsTrying(t *testing.T) {
	spot := &fakeProvider{name: "twelvedata", quote: &provider.Quote{Last: 1, Source: "twelvedata"}}
	o := New([]provider.Provider{spot}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if q := o.Fetch(ctx, goldMapping()); q != nil {
		t.Fatalf("want nil on canceled context, got %+v", q)
	}
	if spot.calls != 0 {
		t.Fatalf("provider called after cancellation")
	}
}

func TestFetch_UnknownClassUsesUnknownOrder(t *testing.T) {
	general := &fakeProvider{name: "finnhub", quote: &provider.Quote{Last: 12.5, Source: "finnhub"}}
	o := New([]provider.Provider{general}, nil, nil)

	m := symbols.Mapping{
		Symbol: "ZZZ", Class: symbols.Class("weird"), Decimals: 2,
		ProviderIDs: map[string]string{"finnhub": "ZZZ"},
	}
	if q := o.Fetch(context.Background(), m); q == nil || q.Last != 12.5 {
		t.Fatalf("unknown class must fall back to the unknown order: %+v", q)
	}
}
