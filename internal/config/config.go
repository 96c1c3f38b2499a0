// Package config holds the runtime configuration for the foliograde service.
// Values come from environment variables with development-friendly defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the aggregate runtime configuration. Sub-components receive the
// slices of this struct they need at wiring time.
type Config struct {
	// ListenAddr is the HTTP listen address of the API server.
	ListenAddr string

	// MaxConcurrentAnalyses caps how many single-item pipelines a batch may
	// run in parallel.
	MaxConcurrentAnalyses int

	// AnalysisTimeout is the wall-clock budget of one analysis pipeline.
	AnalysisTimeout time.Duration

	// PageLoadTimeout bounds a fetch attempt (rendered or plain).
	PageLoadTimeout time.Duration

	// AIRequestTimeout bounds a single feedback-provider call.
	AIRequestTimeout time.Duration

	// Cache
	CacheTTL      time.Duration
	EnableCaching bool
	CachePath     string // sqlite file; empty means in-memory

	// Rate limiting
	RateLimitPerHour int
	RateLimitPerDay  int

	// AllowedOrigins is the comma-separated CORS allowlist. Empty allows any
	// origin (development).
	AllowedOrigins string

	// Feedback providers
	GeminiAPIKey     string
	GroqAPIKey       string
	EnableShareLinks bool

	// WebClientBackend selects the rendering strategy: "chromedp" or
	// "nethttp". The plain client is always available as fallback.
	WebClientBackend string
}

// DefaultConfig returns a Config populated with development defaults.
// The defaults mirror the documented configuration surface.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:            ":8080",
		MaxConcurrentAnalyses: 5,
		AnalysisTimeout:       90 * time.Second,
		PageLoadTimeout:       30 * time.Second,
		AIRequestTimeout:      20 * time.Second,
		CacheTTL:              7 * 24 * time.Hour,
		EnableCaching:         true,
		CachePath:             "cache.db",
		RateLimitPerHour:      10,
		RateLimitPerDay:       100,
		EnableShareLinks:      true,
		WebClientBackend:      "chromedp",
	}
}

// FromEnv returns DefaultConfig overridden by recognized environment
// variables. Malformed numeric values are reported as errors rather than
// silently ignored.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	var err error
	if cfg.MaxConcurrentAnalyses, err = envInt("MAX_CONCURRENT_ANALYSES", cfg.MaxConcurrentAnalyses); err != nil {
		return nil, err
	}
	if cfg.AnalysisTimeout, err = envSeconds("ANALYSIS_TIMEOUT_SECONDS", cfg.AnalysisTimeout); err != nil {
		return nil, err
	}
	if cfg.PageLoadTimeout, err = envSeconds("PAGE_LOAD_TIMEOUT", cfg.PageLoadTimeout); err != nil {
		return nil, err
	}
	if cfg.AIRequestTimeout, err = envSeconds("AI_REQUEST_TIMEOUT", cfg.AIRequestTimeout); err != nil {
		return nil, err
	}
	if days, err := envInt("CACHE_TTL_DAYS", int(cfg.CacheTTL/(24*time.Hour))); err != nil {
		return nil, err
	} else {
		cfg.CacheTTL = time.Duration(days) * 24 * time.Hour
	}
	if cfg.EnableCaching, err = envBool("ENABLE_CACHING", cfg.EnableCaching); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerHour, err = envInt("RATE_LIMIT_PER_HOUR", cfg.RateLimitPerHour); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerDay, err = envInt("RATE_LIMIT_PER_DAY", cfg.RateLimitPerDay); err != nil {
		return nil, err
	}
	if cfg.EnableShareLinks, err = envBool("ENABLE_SHARE_LINKS", cfg.EnableShareLinks); err != nil {
		return nil, err
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.GroqAPIKey = v
	}
	if v := os.Getenv("WEBCLIENT_BACKEND"); v != "" {
		cfg.WebClientBackend = strings.ToLower(strings.TrimSpace(v))
	}

	return cfg, nil
}

// OriginsList parses AllowedOrigins into a slice; empty input yields nil.
func (c *Config) OriginsList() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

func envSeconds(key string, def time.Duration) (time.Duration, error) {
	n, err := envInt(key, int(def/time.Second))
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s=%q is not a boolean: %w", key, v, err)
	}
	return b, nil
}
