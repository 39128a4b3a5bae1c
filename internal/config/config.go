package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dhruvilrpatil/urlshortner/internal/core"
)

// Counter backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds runtime configuration with sensible defaults for local dev.
type Config struct {
	Port     int    // HTTP port (default 8080)
	BaseURL  string // e.g., https://sho.rt (no trailing slash); empty = request host
	DBPath   string // e.g., ./data/urlshortner.db
	Env      string // development | production
	LogLevel string

	CounterBackend string // sqlite | redis | memory
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	ShortenLimit  int
	ShortenWindow time.Duration
	FollowLimit   int
	FollowWindow  time.Duration
	SpamLimit     int
	SpamWindow    time.Duration

	TrustedProxies []string // CIDRs or IPs allowed to set ClientIPHeader
	ClientIPHeader string

	CustomCodePolicy core.CustomCodePolicy
	CORSOrigins      []string
}

// FromEnv loads configuration from environment variables, falling back to defaults.
// A local ".env" file is read first if present; real environment variables win.
func FromEnv() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig() // best-effort: no .env is fine

	cfg := Config{
		Port:           v.GetInt("PORT"),
		BaseURL:        sanitizeBaseURL(v.GetString("BASE_URL")),
		DBPath:         getDBPath(v.GetString("DB_PATH")),
		Env:            strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		LogLevel:       strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		CounterBackend: strings.ToLower(strings.TrimSpace(v.GetString("COUNTER_BACKEND"))),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		ShortenLimit:   v.GetInt("SHORTEN_LIMIT"),
		ShortenWindow:  v.GetDuration("SHORTEN_WINDOW"),
		FollowLimit:    v.GetInt("FOLLOW_LIMIT"),
		FollowWindow:   v.GetDuration("FOLLOW_WINDOW"),
		SpamLimit:      v.GetInt("SPAM_LIMIT"),
		SpamWindow:     v.GetDuration("SPAM_WINDOW"),
		TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
		ClientIPHeader: strings.TrimSpace(v.GetString("CLIENT_IP_HEADER")),

		CustomCodePolicy: core.CustomCodePolicy(strings.ToLower(strings.TrimSpace(v.GetString("CUSTOM_CODE_POLICY")))),
		CORSOrigins:      splitList(v.GetString("CORS_ORIGINS")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("BASE_URL", "")
	v.SetDefault("DB_PATH", "./data/urlshortner.db")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("COUNTER_BACKEND", BackendSQLite)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SHORTEN_LIMIT", 10)
	v.SetDefault("SHORTEN_WINDOW", "60s")
	v.SetDefault("FOLLOW_LIMIT", 120)
	v.SetDefault("FOLLOW_WINDOW", "60s")
	v.SetDefault("SPAM_LIMIT", 3)
	v.SetDefault("SPAM_WINDOW", "30s")
	v.SetDefault("TRUSTED_PROXIES", "0.0.0.0/0,::/0")
	v.SetDefault("CLIENT_IP_HEADER", "X-Forwarded-For")
	v.SetDefault("CUSTOM_CODE_POLICY", string(core.CustomCodeIgnore))
	v.SetDefault("CORS_ORIGINS", "")
}

// Validate rejects unknown enum values and nonsensical limits.
func (c Config) Validate() error {
	switch c.CounterBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("COUNTER_BACKEND: unknown backend %q", c.CounterBackend)
	}
	switch c.CustomCodePolicy {
	case core.CustomCodeIgnore, core.CustomCodeConflict:
	default:
		return fmt.Errorf("CUSTOM_CODE_POLICY: unknown policy %q", c.CustomCodePolicy)
	}
	for name, w := range map[string]time.Duration{
		"SHORTEN_WINDOW": c.ShortenWindow,
		"FOLLOW_WINDOW":  c.FollowWindow,
		"SPAM_WINDOW":    c.SpamWindow,
	} {
		if w < time.Second {
			return fmt.Errorf("%s: must be at least 1s, got %s", name, w)
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("PORT: out of range: %d", c.Port)
	}
	return nil
}

func sanitizeBaseURL(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, "/")
}

func getDBPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		p = "./data/urlshortner.db"
	}
	if p == ":memory:" {
		return p
	}
	// Normalize to OS-specific path; create parent dir if possible (best-effort).
	p = filepath.Clean(p)
	if dir := filepath.Dir(p); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return p
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
