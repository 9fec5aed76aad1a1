package cache

import (
	"sync"
	"time"

	"quotefeed/internal/provider"
	"quotefeed/internal/symbols"
)

// DefaultFreshTTL is the window inside which a cached quote short-circuits
// a live fetch entirely.
const DefaultFreshTTL = 2500 * time.Millisecond

type entry struct {
	insertedAt time.Time
	quote      provider.Quote
}

// Store is the process-wide quote cache, keyed by canonical symbol, with
// two read tiers over one map: Fresh (age < fresh TTL) and Stale (any
// age, flagged). Writes are last-write-wins full replacements; an older
// in-flight fetch landing after a newer one is an accepted
// bounded-staleness tradeoff, not corrected with sequencing. Entries are
// superseded in place, never evicted by size.
type Store struct {
	freshTTL time.Duration

	mu      sync.RWMutex
	entries map[string]entry

	now func() time.Time
}

func New(freshTTL time.Duration) *Store {
	if freshTTL <= 0 {
		freshTTL = DefaultFreshTTL
	}
	return &Store{
		freshTTL: freshTTL,
		entries:  make(map[string]entry),
		now:      time.Now,
	}
}

// Put unconditionally replaces the entry for the quote's symbol.
func (s *Store) Put(q provider.Quote) {
	key := symbols.Normalize(q.Symbol)
	if key == "" {
		return
	}
	s.mu.Lock()
	s.entries[key] = entry{insertedAt: s.now(), quote: q}
	s.mu.Unlock()
}

// Fresh returns the cached quote only while it is younger than the fresh
// TTL. The returned copy keeps its original fetch timestamp so repeat
// reads within the window are byte-identical.
func (s *Store) Fresh(symbol string) *provider.Quote {
	key := symbols.Normalize(symbol)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.now().Sub(e.insertedAt) >= s.freshTTL {
		return nil
	}
	q := e.quote
	return &q
}

// Stale returns the most recent cached quote regardless of age, flagged
// stale, together with its age. Used only after every live attempt has
// failed.
func (s *Store) Stale(symbol string) (*provider.Quote, time.Duration) {
	key := symbols.Normalize(symbol)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, 0
	}
	q := e.quote
	q.Stale = true
	return &q, s.now().Sub(e.insertedAt)
}

// Len reports the number of cached symbols.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
