package fallback

import (
	"context"

	"go.uber.org/zap"

	"quotefeed/internal/provider"
	"quotefeed/internal/symbols"
)

// DefaultOrders is the declarative provider preference per instrument
// class. Ordering favors the provider whose price convention matches the
// instrument's real trading venue: crypto prefers the aggregator, spot
// FX/metals prefer the broker-spot feed over the futures proxy, and
// equities/indices/futures prefer the general feed first. A symbol's own
// Preferred field never overrides the class order; class orders are the
// single auditable source of truth.
var DefaultOrders = map[symbols.Class][]string{
	symbols.ClassCrypto:  {"coingecko", "twelvedata", "finnhub"},
	symbols.ClassSpotFX:  {"twelvedata", "finnhub"},
	symbols.ClassFutures: {"finnhub", "twelvedata"},
	symbols.ClassIndex:   {"finnhub", "twelvedata"},
	symbols.ClassEquity:  {"finnhub", "twelvedata"},
	symbols.ClassUnknown: {"finnhub", "twelvedata"},
}

// Orchestrator tries providers strictly in class preference order with no
// speculative parallel fan-out, so a healthy preferred provider is the
// only paid call made for a symbol.
type Orchestrator struct {
	providers map[string]provider.Provider
	orders    map[symbols.Class][]string
	log       *zap.Logger
}

// New registers the available providers. An adapter whose credential is
// absent is simply not passed in; the orchestrator skips names with no
// registration, which is how configuration absence stays silent.
func New(providers []provider.Provider, orders map[symbols.Class][]string, log *zap.Logger) *Orchestrator {
	if orders == nil {
		orders = DefaultOrders
	}
	if log == nil {
		log = zap.NewNop()
	}
	byName := make(map[string]provider.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Orchestrator{providers: byName, orders: orders, log: log}
}

// Fetch resolves one mapping to a live quote, short-circuiting on the
// first provider that returns one. Provider failures are soft misses
// logged at debug. Returns nil only when the whole order is exhausted or
// the context deadline has passed.
func (o *Orchestrator) Fetch(ctx context.Context, m symbols.Mapping) *provider.Quote {
	order, ok := o.orders[m.Class]
	if !ok {
		order = o.orders[symbols.ClassUnknown]
	}
	for _, name := range order {
		if ctx.Err() != nil {
			return nil
		}
		p, ok := o.providers[name]
		if !ok {
			continue
		}
		id := m.ProviderIDs[name]
		if id == "" {
			continue
		}
		q, err := p.Fetch(ctx, id)
		if err != nil {
			o.log.Debug("provider miss",
				zap.String("provider", name),
				zap.String("symbol", m.Symbol),
				zap.Error(err))
			continue
		}
		q.Symbol = m.Symbol
		if q.Name == "" {
			q.Name = m.Name
		}
		q.Class = m.Class
		q.Decimals = m.Decimals
		return q
	}
	return nil
}

// Providers reports the registered provider names, for diagnostics.
func (o *Orchestrator) Providers() []string {
	out := make([]string, 0, len(o.providers))
	for name := range o.providers {
		out = append(out, name)
	}
	return out
}
