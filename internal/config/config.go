package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// DefaultHMACSecret is only acceptable in offline mode.
const DefaultHMACSecret = "edukid-dev-secret"

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string // sqlite|postgres
	DBDSN    string

	// Empty keeps sessions in process memory.
	CacheURL string

	AuthHMACSecret string
	SessionTTL     time.Duration
	CookieSecure   bool

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// RevealAnswers sends correct answers and explanations with
	// /next-question. Trusted-client (offline) deployments only.
	RevealAnswers bool

	SeedFile    string // empty uses the embedded catalog
	SeedOnStart bool

	LogMode        string
	RequestTimeout time.Duration
}

func FromEnv() Config {
	mode := Mode(envOr("MODE", string(ModeOffline)))
	return Config{
		Mode:               mode,
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		CacheURL:           os.Getenv("CACHE_URL"),
		AuthHMACSecret:     envOr("AUTH_HMAC_SECRET", DefaultHMACSecret),
		SessionTTL:         envDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:       envBool("COOKIE_SECURE", mode == ModeOnline),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://edukid.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
		RevealAnswers:      envBool("REVEAL_ANSWERS", mode == ModeOffline),
		SeedFile:           os.Getenv("SEED_FILE"),
		SeedOnStart:        envBool("SEED_ON_START", mode == ModeOffline),
		LogMode:            envOr("LOG_MODE", "dev"),
		RequestTimeout:     envDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Mode != ModeOffline && c.Mode != ModeOnline {
		return fmt.Errorf("MODE must be 'offline' or 'online', got %q", c.Mode)
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be 'sqlite' or 'postgres', got %q", c.DBDriver)
	}
	if c.Mode == ModeOnline && c.AuthHMACSecret == DefaultHMACSecret {
		return fmt.Errorf("AUTH_HMAC_SECRET must be set in online mode")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// CORSOrigins returns the allow-list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// envDuration accepts Go durations ("90m") or bare seconds ("5400").
func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n := envInt(k, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
