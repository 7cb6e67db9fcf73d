package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Reference expansion depth bounds. Out-of-range values fall back to the
// default rather than failing startup.
const (
	MinReferenceDepth     = 1
	MaxReferenceDepth     = 5
	DefaultReferenceDepth = 3
)

type Config struct {
	Port string

	// Document root
	DocsRoot string

	// Auth (optional; empty disables auth)
	APIKey string

	// Reference loading
	ReferenceDepth      int
	ReferenceMaxNodes   int
	ReferenceTimeBudget time.Duration

	// Document cache
	CacheMaxHeadings int
	AddressCacheSize int

	// Fingerprint index
	FingerprintPrefixBytes int

	// Watcher fallback
	WatchPollInterval time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8087"),

		DocsRoot: envOr("DOCS_ROOT", "./docs"),
		APIKey:   os.Getenv("API_KEY"),

		ReferenceDepth:      envInt("REFERENCE_DEPTH", DefaultReferenceDepth),
		ReferenceMaxNodes:   envInt("REFERENCE_MAX_NODES", 1000),
		ReferenceTimeBudget: envDuration("REFERENCE_TIME_BUDGET", 30*time.Second),

		CacheMaxHeadings: envInt("CACHE_MAX_HEADINGS", 100000),
		AddressCacheSize: envInt("ADDRESS_CACHE_SIZE", 2048),

		FingerprintPrefixBytes: envInt("FINGERPRINT_PREFIX_BYTES", 8192),

		WatchPollInterval: envDuration("WATCH_POLL_INTERVAL", 5*time.Second),
	}

	if cfg.ReferenceDepth < MinReferenceDepth || cfg.ReferenceDepth > MaxReferenceDepth {
		cfg.ReferenceDepth = DefaultReferenceDepth
	}
	if cfg.ReferenceMaxNodes <= 0 {
		cfg.ReferenceMaxNodes = 1000
	}
	if cfg.ReferenceTimeBudget <= 0 {
		cfg.ReferenceTimeBudget = 30 * time.Second
	}
	if cfg.CacheMaxHeadings <= 0 {
		cfg.CacheMaxHeadings = 100000
	}
	if cfg.AddressCacheSize <= 0 {
		cfg.AddressCacheSize = 2048
	}
	if cfg.FingerprintPrefixBytes <= 0 {
		cfg.FingerprintPrefixBytes = 8192
	}
	if cfg.WatchPollInterval <= 0 {
		cfg.WatchPollInterval = 5 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocsRoot == "" {
		return fmt.Errorf("DOCS_ROOT is required")
	}
	info, err := os.Stat(c.DocsRoot)
	if err != nil {
		return fmt.Errorf("DOCS_ROOT %q: %w", c.DocsRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("DOCS_ROOT %q is not a directory", c.DocsRoot)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
