// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Clamp ranges for runtime overrides. The same bounds apply to the
// corresponding configuration values.
const (
	MinSearchPages = 1
	MaxSearchPages = 5

	MinPerCategory = 1
	MaxPerCategory = 96

	MinIDCap = 50
	MaxIDCap = 600
)

// Config holds all application configuration for the catalog service.
type Config struct {
	// APIKey is the YouTube Data API credential (YT_API_KEY). Required for
	// serving catalogs; its absence is the one fatal request error.
	APIKey string `json:"-"`
	// AllowedOrigin is reflected in CORS headers (default "*").
	AllowedOrigin string `json:"allowed_origin"`
	// ListenAddr is the HTTP listen address.
	ListenAddr string `json:"listen_addr"`

	// MinDurationSec is the eligibility duration floor in seconds.
	MinDurationSec int64 `json:"min_duration_sec"`
	// SearchPages is the per-query page budget.
	SearchPages int `json:"search_pages"`
	// MaxPerCategory bounds every category's length.
	MaxPerCategory int `json:"max_per_category"`
	// MaxIDs caps the unique identifiers processed per invocation.
	MaxIDs int `json:"max_ids"`

	// Channels are channel IDs whose uploads are harvested (YT_CHANNELS).
	Channels []string `json:"channels"`
	// ExtraQueries extend the built-in search query list (YT_QUERIES).
	ExtraQueries []string `json:"extra_queries"`

	// Workers bounds concurrent detail batch requests.
	Workers int `json:"workers"`
	// CallTimeout is the per-upstream-call deadline.
	CallTimeout time.Duration `json:"call_timeout"`
	// RequestsPerSecond caps the outbound request rate.
	RequestsPerSecond float64 `json:"requests_per_second"`
	// MaxRetries is the per-call retry budget.
	MaxRetries int `json:"max_retries"`
}

// DefaultConfig returns configuration with safe defaults, kept small so a
// full catalog build fits a serverless-style request window.
func DefaultConfig() *Config {
	return &Config{
		AllowedOrigin:     "*",
		ListenAddr:        ":8080",
		MinDurationSec:    1200, // 20m
		SearchPages:       2,
		MaxPerCategory:    64,
		MaxIDs:            300,
		Workers:           4,
		CallTimeout:       6 * time.Second,
		RequestsPerSecond: 8,
		MaxRetries:        1,
	}
}

// Load loads configuration from environment variables, config file, and
// applies defaults. Priority: env vars > config file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from gojocatalog.json in the current
// directory or the user config directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"gojocatalog.json",
		filepath.Join(os.Getenv("HOME"), ".config", "gojocatalog", "gojocatalog.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YT_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("ALLOWED_ORIGIN"); v != "" {
		c.AllowedOrigin = v
	}
	if v := os.Getenv("CATALOG_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("MIN_DURATION_SEC"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			c.MinDurationSec = n
		}
	}
	if v := os.Getenv("SEARCH_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SearchPages = ClampInt(n, MinSearchPages, MaxSearchPages)
		}
	}
	if v := os.Getenv("MAX_PER_CATEGORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxPerCategory = ClampInt(n, MinPerCategory, MaxPerCategory)
		}
	}
	if v := os.Getenv("MAX_IDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxIDs = ClampInt(n, MinIDCap, MaxIDCap)
		}
	}
	if v := os.Getenv("YT_CHANNELS"); v != "" {
		c.Channels = SplitList(v)
	}
	if v := os.Getenv("YT_QUERIES"); v != "" {
		c.ExtraQueries = SplitList(v)
	}
	if v := os.Getenv("CATALOG_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
	if v := os.Getenv("CATALOG_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CallTimeout = d
		}
	}
	if v := os.Getenv("CATALOG_API_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("CATALOG_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.MaxRetries = n
		}
	}
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.MinDurationSec < 0 {
		return fmt.Errorf("min_duration_sec must be non-negative")
	}
	if c.SearchPages < MinSearchPages || c.SearchPages > MaxSearchPages {
		return fmt.Errorf("search_pages must be in [%d,%d]", MinSearchPages, MaxSearchPages)
	}
	if c.MaxPerCategory < MinPerCategory || c.MaxPerCategory > MaxPerCategory {
		return fmt.Errorf("max_per_category must be in [%d,%d]", MinPerCategory, MaxPerCategory)
	}
	if c.MaxIDs < MinIDCap || c.MaxIDs > MaxIDCap {
		return fmt.Errorf("max_ids must be in [%d,%d]", MinIDCap, MaxIDCap)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	return nil
}

// ClampInt clamps v into [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SplitList splits a comma-separated value into trimmed, non-empty entries.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
