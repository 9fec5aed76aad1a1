package quotes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"quotefeed/internal/cache"
	"quotefeed/internal/fallback"
	"quotefeed/internal/health"
	"quotefeed/internal/provider"
	"quotefeed/internal/symbols"
)

// MaxBatchSymbols caps fan-out per batch call.
const MaxBatchSymbols = 50

// deadlineBuffer is added to the per-provider timeout to form the global
// batch deadline. A symbol pipeline still pending past it is forced onto
// the stale/static path instead of holding the batch open.
const deadlineBuffer = 2 * time.Second

var (
	ErrNoSymbols      = errors.New("quotes: no symbols requested")
	ErrTooManySymbols = fmt.Errorf("quotes: too many symbols (max %d)", MaxBatchSymbols)
)

// Result is the caller-facing outcome for one symbol: either an available
// quote (possibly stale, always with a positive price) or an explicit
// unavailable marker with a reason. A zero or invented price is never
// presented as live data.
type Result struct {
	Available bool     `json:"available"`
	Reason    string   `json:"reason,omitempty"`
	LastKnown *float64 `json:"last_known,omitempty"`
	*provider.Quote
}

// Service is the quote layer's public surface. All shared state (cache,
// counters) is injected at construction; there are no package globals.
type Service struct {
	table  *symbols.Table
	orch   *fallback.Orchestrator
	cache  *cache.Store
	health *health.Counters
	log    *zap.Logger

	sf      singleflight.Group
	timeout time.Duration // per-provider call timeout, basis for the batch deadline
}

func NewService(table *symbols.Table, orch *fallback.Orchestrator, store *cache.Store, counters *health.Counters, log *zap.Logger) *Service {
	if table == nil {
		table = symbols.Builtin()
	}
	if store == nil {
		store = cache.New(cache.DefaultFreshTTL)
	}
	if counters == nil {
		counters = health.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if orch == nil {
		orch = fallback.New(nil, nil, log)
	}
	return &Service{
		table:   table,
		orch:    orch,
		cache:   store,
		health:  counters,
		log:     log,
		timeout: provider.DefaultTimeout,
	}
}

// Health returns the telemetry counters for read-only exposure.
func (s *Service) Health() *health.Counters { return s.health }

// GetQuote fetches one symbol through the full pipeline.
func (s *Service) GetQuote(ctx context.Context, symbol string) Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout+deadlineBuffer)
	defer cancel()
	start := time.Now()
	r := s.fetchOne(ctx, symbol)
	s.health.ObserveLatency(time.Since(start))
	return r
}

// GetQuotes deduplicates and resolves the requested symbols, fans out one
// pipeline per unique symbol, and returns a map whose key set is exactly
// the deduplicated normalized input set. Every requested symbol appears,
// either as a quote or an explicit unavailable entry. The only errors are
// client errors for an empty or oversized request.
func (s *Service) GetQuotes(ctx context.Context, requested []string) (map[string]Result, error) {
	uniq := dedupe(requested)
	if len(uniq) == 0 {
		return nil, ErrNoSymbols
	}
	if len(uniq) > MaxBatchSymbols {
		return nil, ErrTooManySymbols
	}

	batchID := uuid.NewString()
	batchStart := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout+deadlineBuffer)
	defer cancel()

	results := make(map[string]Result, len(uniq))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, sym := range uniq {
		sym := sym
		g.Go(func() error {
			start := time.Now()
			r := s.fetchOne(gctx, sym)
			s.health.ObserveLatency(time.Since(start))
			mu.Lock()
			results[sym] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // pipelines never return errors; per-symbol isolation is mandatory

	s.log.Debug("batch complete",
		zap.String("batch_id", batchID),
		zap.Int("symbols", len(uniq)),
		zap.Duration("elapsed", time.Since(batchStart)))
	return results, nil
}

// fetchOne walks one symbol through the pipeline:
// fresh cache -> live fetch -> stale cache -> static table -> unavailable.
func (s *Service) fetchOne(ctx context.Context, requested string) Result {
	s.health.Request()
	m := s.table.Resolve(requested)

	if q := s.cache.Fresh(m.Symbol); q != nil {
		s.health.FreshHit()
		return Result{Available: true, Quote: q}
	}

	// Coalesce concurrent live fetches of the same symbol so parallel
	// batch entries cost a single upstream call.
	v, _, _ := s.sf.Do(m.Symbol, func() (any, error) {
		q := s.orch.Fetch(ctx, m)
		if q != nil {
			s.cache.Put(*q)
		}
		return q, nil
	})
	if q, _ := v.(*provider.Quote); q != nil {
		s.health.LiveFetch()
		return Result{Available: true, Quote: q}
	}
	s.health.Error()

	if q, age := s.cache.Stale(m.Symbol); q != nil {
		s.health.StaleFallback()
		s.log.Debug("serving stale quote",
			zap.String("symbol", m.Symbol),
			zap.Duration("age", age))
		return Result{Available: true, Quote: q}
	}

	if px, ok := symbols.LastKnownGood(m.Symbol); ok {
		s.health.StaticFallback()
		s.log.Debug("serving static fallback", zap.String("symbol", m.Symbol))
		q := &provider.Quote{
			Symbol:    m.Symbol,
			Name:      m.Name,
			Class:     m.Class,
			Last:      px,
			Decimals:  m.Decimals,
			FetchedAt: time.Now().UTC(),
			Source:    "static",
			Stale:     true,
		}
		return Result{Available: true, Quote: q}
	}

	return Result{
		Available: false,
		Reason:    fmt.Sprintf("no live quote, cached price, or static fallback for %q", m.Symbol),
	}
}

// dedupe normalizes and deduplicates, preserving first-seen order.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		key := symbols.Normalize(s)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
