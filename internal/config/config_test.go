package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"MODE", "HTTP_ADDR", "DB_DRIVER", "DB_DSN", "CACHE_URL", "AUTH_HMAC_SECRET",
	"SESSION_TTL", "COOKIE_SECURE", "CORS_ORIGINS_ONLINE", "CORS_ORIGINS_OFFLINE",
	"REVEAL_ANSWERS", "SEED_FILE", "SEED_ON_START", "LOG_MODE", "REQUEST_TIMEOUT",
}

// clearEnv blanks every variable FromEnv reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Empty(t, cfg.CacheURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.RevealAnswers, "offline mode reveals answers by default")
	assert.True(t, cfg.SeedOnStart)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins())
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Online(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODE", "online")
	t.Setenv("AUTH_HMAC_SECRET", "prod-secret")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , https://b.example ,")

	cfg := FromEnv()
	assert.Equal(t, ModeOnline, cfg.Mode)
	assert.False(t, cfg.RevealAnswers)
	assert.False(t, cfg.SeedOnStart)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
	require.NoError(t, cfg.Validate())
}

func TestEnvDuration_Seconds(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "45")
	assert.Equal(t, 45*time.Second, envDuration("REQUEST_TIMEOUT", time.Second))
	t.Setenv("REQUEST_TIMEOUT", "garbage")
	assert.Equal(t, time.Second, envDuration("REQUEST_TIMEOUT", time.Second))
}

func TestValidate(t *testing.T) {
	base := Config{Mode: ModeOffline, DBDriver: "sqlite", AuthHMACSecret: DefaultHMACSecret, SessionTTL: time.Hour}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid offline", func(c *Config) {}, false},
		{"bad mode", func(c *Config) { c.Mode = "hybrid" }, true},
		{"bad driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"online default secret", func(c *Config) { c.Mode = ModeOnline }, true},
		{"online real secret", func(c *Config) { c.Mode = ModeOnline; c.AuthHMACSecret = "x" }, false},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
