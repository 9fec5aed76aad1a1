package provider

import (
	"context"
	"math"
	"net/http"
	"time"

	"quotefeed/internal/symbols"
)

// Price conventions carried on every quote so callers can see which venue
// semantics a price follows. A spot-class instrument served by a non-spot
// source is visible through this field rather than silently conflated.
const (
	ConventionSpot      = "spot"      // broker-spot feed
	ConventionAggregate = "aggregate" // cross-exchange aggregator
	ConventionOfficial  = "official"  // exchange/official session feed
)

// DefaultTimeout bounds a single provider call. Timing out is an expected
// degradation mode, logged at debug by callers, never an error.
const DefaultTimeout = 5 * time.Second

// Quote is the normalized snapshot shape returned by all providers.
// Last is always positive: adapters reject zero/NaN prices as soft
// failures instead of emitting a zero-priced quote.
type Quote struct {
	Symbol     string        `json:"symbol"`
	Name       string        `json:"name,omitempty"`
	Class      symbols.Class `json:"class"`
	Last       float64       `json:"last"`
	Bid        *float64      `json:"bid,omitempty"`
	Ask        *float64      `json:"ask,omitempty"`
	Mid        *float64      `json:"mid,omitempty"`
	Open       *float64      `json:"open,omitempty"`
	High       *float64      `json:"high,omitempty"`
	Low        *float64      `json:"low,omitempty"`
	PrevClose  *float64      `json:"prev_close,omitempty"`
	Change     float64       `json:"change"`
	ChangePct  float64       `json:"change_pct"`
	Decimals   int           `json:"decimals"`
	FetchedAt  time.Time     `json:"fetched_at"`
	Source     string        `json:"source"`
	Convention string        `json:"convention,omitempty"`
	Stale      bool          `json:"stale"`
}

// Provider fetches one instrument by its provider-native identifier.
// Implementations bound every call with their own timeout. Any failure
// (missing credential, non-2xx, malformed payload, nonsensical price)
// surfaces as an error the caller treats as a soft miss and recovers by
// falling through to the next provider.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, providerID string) (*Quote, error)
}

// Doer is the minimal HTTP client surface adapters depend on.
//
//go:generate mockgen -package=finnhub_test -destination=finnhub/mock_doer_test.go quotefeed/internal/provider Doer
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ValidPrice rejects the values the upstream feeds emit for missing data.
func ValidPrice(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Float is a pointer helper for the nullable quote fields.
func Float(v float64) *float64 { return &v }

// FillChange derives change and percent-change from PrevClose when the
// feed only reports a last price.
func FillChange(q *Quote) {
	if q == nil || q.PrevClose == nil || *q.PrevClose == 0 {
		return
	}
	if q.Change == 0 && q.ChangePct == 0 {
		q.Change = q.Last - *q.PrevClose
		q.ChangePct = q.Change / *q.PrevClose * 100
	}
}

// Round truncates noise beyond an instrument's display precision.
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
