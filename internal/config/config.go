package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Server struct {
	Port              string `mapstructure:"port"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
}

// Provider is the per-feed block. An enabled feed with no API key (where
// one is required) is silently skipped at wiring time, not an error.
type Provider struct {
	Enabled               bool   `mapstructure:"enabled"`
	APIKey                string `mapstructure:"api_key"`
	BaseURL               string `mapstructure:"base_url"`
	TimeoutSec            int    `mapstructure:"timeout_sec"`
	MaxRequestsPerMinute  int    `mapstructure:"max_requests_per_minute"`
	Burst                 int    `mapstructure:"burst"`
	MinRequestIntervalSec int    `mapstructure:"min_request_interval_sec"`
}

type Cache struct {
	FreshTTLMillis int `mapstructure:"fresh_ttl_ms"`
}

type Config struct {
	Server     Server   `mapstructure:"server"`
	Cache      Cache    `mapstructure:"cache"`
	Finnhub    Provider `mapstructure:"finnhub"`
	TwelveData Provider `mapstructure:"twelvedata"`
	CoinGecko  Provider `mapstructure:"coingecko"`
}

// Load reads config.yaml (or the file at path) with env overrides layered
// on top: FINNHUB_API_KEY, TWELVEDATA_API_KEY, COINGECKO_API_KEY,
// SERVER_PORT, CACHE_FRESH_TTL_MS, and so on. A missing file yields
// defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		// An explicit path must exist; a missing default config.yaml is fine.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout_sec", 10)

	v.SetDefault("cache.fresh_ttl_ms", 2500)

	for _, feed := range []string{"finnhub", "twelvedata", "coingecko"} {
		v.SetDefault(feed+".enabled", true)
		v.SetDefault(feed+".api_key", "")
		v.SetDefault(feed+".base_url", "")
		v.SetDefault(feed+".timeout_sec", 5)
		v.SetDefault(feed+".max_requests_per_minute", 0)
		v.SetDefault(feed+".burst", 0)
		v.SetDefault(feed+".min_request_interval_sec", 0)
	}
}
