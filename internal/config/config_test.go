package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "ACCESS_TOKEN_TTL_MINUTES", "REFRESH_JWT_SECRET", "JWT_SECRET", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.AccessTTL())
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, cfg.JWTSecret, cfg.RefreshJWTSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("REFRESH_JWT_SECRET", "b")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://kos.example.com , ,https://admin.kos.example.com")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, "b", cfg.RefreshJWTSecret)
	assert.Equal(t, []string{"https://kos.example.com", "https://admin.kos.example.com"}, cfg.AllowedOrigins())
}

func TestTTLFallbacks(t *testing.T) {
	cfg := &Config{AccessTokenTTLMinutes: "-5", RefreshTokenTTLDays: "soon"}
	assert.Equal(t, time.Hour, cfg.AccessTTL())
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL())
}
