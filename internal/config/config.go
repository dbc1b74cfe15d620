package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	Port    string
	GinMode string

	DBDriver   string // postgres or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string
	DBLogLevel string

	JWTSecret string
	// Token settings
	AccessTokenTTLMinutes string // minutes
	RefreshTokenTTLDays   string // days
	RefreshJWTSecret      string

	AdminEmail    string
	AdminPassword string
	AdminFullName string

	CORSAllowedOrigins string // comma separated
}

// Load reads the environment, after merging a .env file when one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return &Config{
		Env:                   getenv("APP_ENV", "development"),
		Port:                  getenv("PORT", "8080"),
		GinMode:               getenv("GIN_MODE", "debug"),
		DBDriver:              strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DBHost:                getenv("DB_HOST", "localhost"),
		DBPort:                getenv("DB_PORT", "5432"),
		DBUser:                getenv("DB_USER", "postgres"),
		DBPassword:            getenv("DB_PASSWORD", "postgres"),
		DBName:                getenv("DB_NAME", "kos_db"),
		DBSSLMode:             getenv("DB_SSLMODE", "disable"),
		SQLitePath:            getenv("SQLITE_PATH", "kos.db"),
		DBLogLevel:            strings.ToLower(getenv("DB_LOG_LEVEL", "warn")),
		JWTSecret:             getenv("JWT_SECRET", "supersecret_change_me"),
		AccessTokenTTLMinutes: getenv("ACCESS_TOKEN_TTL_MINUTES", "60"),
		RefreshTokenTTLDays:   getenv("REFRESH_TOKEN_TTL_DAYS", "30"),
		RefreshJWTSecret:      getenv("REFRESH_JWT_SECRET", getenv("JWT_SECRET", "supersecret_change_me")),
		AdminEmail:            getenv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:         getenv("ADMIN_PASSWORD", "admin12345"),
		AdminFullName:         getenv("ADMIN_FULL_NAME", "Administrator"),
		CORSAllowedOrigins:    getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}
}

// AccessTTL falls back to one hour on a missing or invalid value.
func (c *Config) AccessTTL() time.Duration {
	return positiveDuration(c.AccessTokenTTLMinutes, time.Minute, 60*time.Minute)
}

// RefreshTTL falls back to 30 days.
func (c *Config) RefreshTTL() time.Duration {
	return positiveDuration(c.RefreshTokenTTLDays, 24*time.Hour, 30*24*time.Hour)
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func positiveDuration(raw string, unit, fallback time.Duration) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * unit
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
