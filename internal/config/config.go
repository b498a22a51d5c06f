// apps/go-server/internal/config/config.go
//
// Runtime configuration for the bloglist server.
// All settings come from environment variables (optionally seeded from a
// .env file by main). The loaded Config is passed explicitly to the
// components that need it; nothing here is global.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends accepted by STORE.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port            string
	Secret          string        // token signing key (SECRET, required)
	TokenTTL        time.Duration // bearer token lifetime
	Store           string        // memory | sqlite | postgres
	SQLitePath      string
	DatabaseURL     string // Postgres DSN, required when Store == postgres
	ClientOrigin    string // CORS origin
	StaticDir       string // optional frontend build to serve at /
	LogLevel        string
	LogFormat       string // json | console
	ShutdownTimeout time.Duration
}

// ErrMissingSecret is returned by Load when SECRET is unset.
var ErrMissingSecret = errors.New("SECRET is required")

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "3003"),
		Secret:          os.Getenv("SECRET"),
		TokenTTL:        getEnvDuration("TOKEN_TTL", time.Hour),
		Store:           getEnv("STORE", StoreSQLite),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/bloglist.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ClientOrigin:    getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		StaticDir:       os.Getenv("STATIC_DIR"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that the server cannot start without.
func (c Config) Validate() error {
	if c.Secret == "" {
		return ErrMissingSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	return nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("90m") or plain seconds ("3600").
func getEnvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n := getEnvInt(k, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
