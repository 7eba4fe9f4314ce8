package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the HTTPREDIRECT_ prefix.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// well-formed env vars override the existing value.  This should be
// called BEFORE CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("HTTPREDIRECT_BIND"); v != "" {
		cfg.BindAddr = v
	}
	if v := envInt("HTTPREDIRECT_PORT"); v > 0 {
		cfg.Port = v
	}
	if v := os.Getenv("HTTPREDIRECT_DESTINATION"); v != "" {
		cfg.Destination = v
	}
	if v := envInt("HTTPREDIRECT_MAX_CONNS"); v > 0 {
		cfg.MaxConns = v
	}
	if v := envInt("HTTPREDIRECT_BUFFER_SIZE"); v > 0 {
		cfg.ReadBufferSize = v
	}
	if v := envInt("HTTPREDIRECT_CACHE_SIZE"); v > 0 {
		cfg.CacheCapacity = v
	}
	if v := envInt("HTTPREDIRECT_CACHE_TTL"); v > 0 {
		cfg.CacheTTL = time.Duration(v) * time.Second
	}
	if v := envInt("HTTPREDIRECT_PROBE_DELAY"); v > 0 {
		cfg.PopulateDelay = time.Duration(v) * time.Millisecond
	}
	if v := os.Getenv("HTTPREDIRECT_USER"); v != "" {
		cfg.User = v
	}
	if v, ok := envIntOK("HTTPREDIRECT_VERBOSE"); ok && v >= 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	n, _ := envIntOK(key)
	return n
}

func envIntOK(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
