package quotes

import (
	"context"
	"time"

	"quotefeed/internal/provider"
)

// Instrument is the per-symbol entry of the prompt context. Available and
// stale are always explicit so a downstream model can tell live data from
// degraded data and has nothing to guess for unavailable instruments.
type Instrument struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name,omitempty"`
	Class     string   `json:"class,omitempty"`
	Available bool     `json:"available"`
	Stale     bool     `json:"stale"`
	Last      *float64 `json:"last,omitempty"`
	ChangePct *float64 `json:"change_pct,omitempty"`
	Source    string   `json:"source,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

// PromptContext is the JSON shape injected into downstream AI prompts.
// Consumers must treat it as the sole source of truth for prices.
type PromptContext struct {
	AsOf        time.Time    `json:"as_of"`
	Instruments []Instrument `json:"instruments"`
	Disclaimer  string       `json:"disclaimer"`
}

const disclaimer = "Prices marked stale may lag the market. Instruments marked unavailable " +
	"have no price data; never state or estimate a price for them."

// PromptContext fetches the requested symbols and shapes them for prompt
// injection. Last prices are rounded to each instrument's display
// precision.
func (s *Service) PromptContext(ctx context.Context, requested []string) (PromptContext, error) {
	results, err := s.GetQuotes(ctx, requested)
	if err != nil {
		return PromptContext{}, err
	}
	uniq := dedupe(requested)
	out := PromptContext{
		AsOf:        time.Now().UTC(),
		Instruments: make([]Instrument, 0, len(uniq)),
		Disclaimer:  disclaimer,
	}
	for _, sym := range uniq {
		r := results[sym]
		inst := Instrument{Symbol: sym, Available: r.Available}
		if r.Quote != nil {
			inst.Name = r.Quote.Name
			inst.Class = string(r.Quote.Class)
			inst.Stale = r.Quote.Stale
			inst.Last = provider.Float(provider.Round(r.Quote.Last, r.Quote.Decimals))
			inst.ChangePct = provider.Float(provider.Round(r.Quote.ChangePct, 2))
			inst.Source = r.Quote.Source
		} else {
			inst.Reason = r.Reason
		}
		out.Instruments = append(out.Instruments, inst)
	}
	return out, nil
}
