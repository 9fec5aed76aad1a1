package symbols

import (
	"fmt"
	"strings"
)

// Class tags the price convention an instrument trades under.
// Spot and futures conventions for the same underlying are distinct
// instruments and must never be collapsed into one symbol.
type Class string

const (
	ClassSpotFX  Class = "spot_fx"
	ClassFutures Class = "futures"
	ClassIndex   Class = "index"
	ClassCrypto  Class = "crypto"
	ClassEquity  Class = "equity"
	ClassUnknown Class = "unknown"
)

// Mapping is a static configuration entry translating a canonical symbol
// into per-provider identifiers plus display metadata.
type Mapping struct {
	Symbol      string            // canonical symbol, unique key
	Name        string            // human-readable display name
	Class       Class
	Decimals    int               // display precision
	Preferred   string            // provider whose venue convention matches the instrument
	ProviderIDs map[string]string // provider name -> provider-native identifier
	AliasOf     string            // non-empty: entry redirects to another canonical symbol
}

// maxAliasHops bounds alias chain traversal. Chains are validated at
// table construction, so Resolve can follow them without cycle checks.
const maxAliasHops = 5

// fallbackProvider is the feed whose identifier format accepts plain
// tickers; unknown symbols are synthesized against it.
const fallbackProvider = "finnhub"

// Table is an immutable lookup of canonical symbols and aliases.
type Table struct {
	entries map[string]Mapping
}

// NewTable builds a Table and verifies every alias chain terminates at a
// non-alias entry within maxAliasHops. A chain that dangles or loops is a
// configuration error, caught here rather than at resolve time.
func NewTable(entries []Mapping) (*Table, error) {
	m := make(map[string]Mapping, len(entries))
	for _, e := range entries {
		key := Normalize(e.Symbol)
		if key == "" {
			return nil, fmt.Errorf("symbols: entry with empty symbol")
		}
		if _, dup := m[key]; dup {
			return nil, fmt.Errorf("symbols: duplicate entry %q", key)
		}
		m[key] = e
	}
	for key, e := range m {
		cur := e
		for hop := 0; cur.AliasOf != ""; hop++ {
			if hop >= maxAliasHops {
				return nil, fmt.Errorf("symbols: alias chain from %q exceeds %d hops", key, maxAliasHops)
			}
			next, ok := m[Normalize(cur.AliasOf)]
			if !ok {
				return nil, fmt.Errorf("symbols: alias %q -> %q does not resolve", cur.Symbol, cur.AliasOf)
			}
			cur = next
		}
	}
	return &Table{entries: m}, nil
}

// Normalize uppercases the input and strips all whitespace.
func Normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// Resolve maps any input to a usable Mapping. Known symbols and aliases
// return their table entry; unknown inputs synthesize a best-effort
// mapping against the plain-ticker provider so callers degrade gracefully
// instead of erroring. Resolve never fails.
func (t *Table) Resolve(input string) Mapping {
	key := Normalize(input)
	e, ok := t.entries[key]
	if !ok {
		return synthesize(key)
	}
	for hop := 0; e.AliasOf != "" && hop < maxAliasHops; hop++ {
		e = t.entries[Normalize(e.AliasOf)]
	}
	return e
}

// Known reports whether the input (or its alias target) has a table entry.
func (t *Table) Known(input string) bool {
	_, ok := t.entries[Normalize(input)]
	return ok
}

func synthesize(symbol string) Mapping {
	return Mapping{
		Symbol:      symbol,
		Name:        symbol,
		Class:       ClassUnknown,
		Decimals:    2,
		Preferred:   fallbackProvider,
		ProviderIDs: map[string]string{fallbackProvider: symbol},
	}
}
