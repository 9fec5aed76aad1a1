package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quotefeed/internal/cache"
	"quotefeed/internal/config"
	"quotefeed/internal/fallback"
	"quotefeed/internal/health"
	"quotefeed/internal/httpx"
	"quotefeed/internal/provider"
	"quotefeed/internal/provider/coingecko"
	"quotefeed/internal/provider/finnhub"
	"quotefeed/internal/provider/ratelimit"
	"quotefeed/internal/provider/twelvedata"
	"quotefeed/internal/quotes"
	"quotefeed/internal/symbols"
)

func main() {
	log, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	svc := buildService(cfg, httpClient, log)
	mux := newMux(svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux)))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newMux(svc *quotes.Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/statusz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Health().Snapshot())
	})
	mux.HandleFunc("/api/quote", func(w http.ResponseWriter, r *http.Request) {
		sym := strings.TrimSpace(r.URL.Query().Get("symbol"))
		if sym == "" {
			http.Error(w, "missing symbol query param", http.StatusBadRequest)
			return
		}
		writeJSON(w, svc.GetQuote(r.Context(), sym))
	})
	mux.HandleFunc("/api/quotes", func(w http.ResponseWriter, r *http.Request) {
		syms, ok := readSymbols(w, r)
		if !ok {
			return
		}
		results, err := svc.GetQuotes(r.Context(), syms)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"quotes": results})
	})
	mux.HandleFunc("/api/context", func(w http.ResponseWriter, r *http.Request) {
		syms := splitCSV(r.URL.Query().Get("symbols"))
		pc, err := svc.PromptContext(r.Context(), syms)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, pc)
	})
	return mux
}

func newLogger() (*zap.Logger, error) {
	c := zap.NewProductionConfig()
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		c.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return c.Build()
}

// buildService wires the provider stack per config. Feeds that require a
// key and have none are skipped quietly; the orchestrator simply never
// sees them.
func buildService(cfg config.Config, httpClient *httpx.Client, log *zap.Logger) *quotes.Service {
	var providers []provider.Provider

	if cfg.Finnhub.Enabled {
		if cfg.Finnhub.APIKey == "" {
			log.Warn("finnhub enabled but FINNHUB_API_KEY not set; adapter disabled")
		} else {
			providers = append(providers, decorate(finnhub.New(finnhub.Config{
				BaseURL: cfg.Finnhub.BaseURL,
				APIKey:  cfg.Finnhub.APIKey,
				Timeout: time.Duration(cfg.Finnhub.TimeoutSec) * time.Second,
			}, httpClient), cfg.Finnhub))
		}
	}
	if cfg.TwelveData.Enabled {
		if cfg.TwelveData.APIKey == "" {
			log.Warn("twelvedata enabled but TWELVEDATA_API_KEY not set; adapter disabled")
		} else {
			opts := []twelvedata.Option{twelvedata.WithHTTPClient(httpClient)}
			if cfg.TwelveData.BaseURL != "" {
				opts = append(opts, twelvedata.WithBaseURL(cfg.TwelveData.BaseURL))
			}
			if cfg.TwelveData.TimeoutSec > 0 {
				opts = append(opts, twelvedata.WithTimeout(time.Duration(cfg.TwelveData.TimeoutSec)*time.Second))
			}
			providers = append(providers, decorate(twelvedata.New(cfg.TwelveData.APIKey, opts...), cfg.TwelveData))
		}
	}
	if cfg.CoinGecko.Enabled {
		// keyless feed; a demo key only raises the rate limit
		providers = append(providers, decorate(coingecko.New(coingecko.Config{
			BaseURL: cfg.CoinGecko.BaseURL,
			APIKey:  cfg.CoinGecko.APIKey,
			Timeout: time.Duration(cfg.CoinGecko.TimeoutSec) * time.Second,
		}, httpClient), cfg.CoinGecko))
	}

	table := symbols.Builtin()
	orch := fallback.New(providers, fallback.DefaultOrders, log)
	store := cache.New(time.Duration(cfg.Cache.FreshTTLMillis) * time.Millisecond)
	return quotes.NewService(table, orch, store, health.New(), log)
}

// decorate layers courtesy pacing onto an adapter when configured.
// Prefer token bucket with burst if RPM is set, otherwise min-interval.
func decorate(p provider.Provider, pc config.Provider) provider.Provider {
	if pc.MaxRequestsPerMinute > 0 {
		burst := pc.Burst
		if burst <= 0 {
			burst = 1
		}
		rate := float64(pc.MaxRequestsPerMinute) / 60.0
		return &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(rate, burst)}
	}
	if pc.MinRequestIntervalSec > 0 {
		return &ratelimit.MinInterval{P: p, Interval: time.Duration(pc.MinRequestIntervalSec) * time.Second}
	}
	return p
}

func readSymbols(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	switch r.Method {
	case http.MethodGet:
		syms := splitCSV(r.URL.Query().Get("symbols"))
		if len(syms) == 0 {
			http.Error(w, "missing symbols query param", http.StatusBadRequest)
			return nil, false
		}
		return syms, true
	case http.MethodPost:
		var body struct {
			Symbols []string `json:"symbols"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return nil, false
		}
		if len(body.Symbols) == 0 {
			http.Error(w, "symbols cannot be empty", http.StatusBadRequest)
			return nil, false
		}
		return body.Symbols, true
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
