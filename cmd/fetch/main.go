// Command fetch runs one batch through the quote pipeline and prints the
// result map as JSON. Diagnostic tool; the server is the real surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
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
	"quotefeed/internal/provider/twelvedata"
	"quotefeed/internal/quotes"
	"quotefeed/internal/symbols"
)

func main() {
	var symbolsCSV string
	var configPath string
	var asContext bool
	var timeout int

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "BTCUSD,XAUUSD,EURUSD"), "comma-separated canonical symbols")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.yaml (optional)")
	flag.BoolVar(&asContext, "context", false, "print the AI prompt context shape instead of raw results")
	flag.IntVar(&timeout, "timeout", 10, "overall timeout seconds")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	var providers []provider.Provider
	if cfg.Finnhub.Enabled && cfg.Finnhub.APIKey != "" {
		providers = append(providers, finnhub.New(finnhub.Config{
			BaseURL: cfg.Finnhub.BaseURL,
			APIKey:  cfg.Finnhub.APIKey,
		}, httpClient))
	}
	if cfg.TwelveData.Enabled && cfg.TwelveData.APIKey != "" {
		providers = append(providers, twelvedata.New(cfg.TwelveData.APIKey, twelvedata.WithHTTPClient(httpClient)))
	}
	if cfg.CoinGecko.Enabled {
		providers = append(providers, coingecko.New(coingecko.Config{APIKey: cfg.CoinGecko.APIKey}, httpClient))
	}

	svc := quotes.NewService(
		symbols.Builtin(),
		fallback.New(providers, fallback.DefaultOrders, log),
		cache.New(time.Duration(cfg.Cache.FreshTTLMillis)*time.Millisecond),
		health.New(),
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	var out any
	if asContext {
		out, err = svc.PromptContext(ctx, splitCSV(symbolsCSV))
	} else {
		out, err = svc.GetQuotes(ctx, splitCSV(symbolsCSV))
	}
	if err != nil {
		log.Fatal("fetch", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(out)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
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
