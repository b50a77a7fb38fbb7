// Package config reads process configuration from the environment, after loading an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AuthMode string

const (
	AuthModeJWT AuthMode = "jwt"
	AuthModeDev AuthMode = "dev"
)

type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StoragePostgres StorageBackend = "postgres"
	StorageRedis    StorageBackend = "redis"
)

type AppConfig struct {
	Port   string
	Env    string
	TZ     *time.Location
	TZName string

	AuthMode   AuthMode
	DevSubject string
	// DevAdminSubjects are seeded as admins into the memory backend only.
	DevAdminSubjects []string

	Storage     StorageBackend
	DatabaseURL string
	RedisURL    string

	SignUpCode          string
	DefaultExaminer     string
	SignUpRatePerMinute int

	IdempotencyRetention time.Duration
}

// LoadDotEnv loads path into the environment without overriding variables already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func LoadAppConfigFromEnv() (AppConfig, error) {
	cfg := AppConfig{
		Port:                 getenv("PORT", "8080"),
		Env:                  getenv("APP_ENV", "development"),
		TZName:               getenv("APP_TIMEZONE", "Europe/London"),
		AuthMode:             AuthMode(strings.ToLower(getenv("AUTH_MODE", string(AuthModeJWT)))),
		DevSubject:           getenv("DEV_SUBJECT", "dev-local"),
		DevAdminSubjects:     splitList(os.Getenv("DEV_ADMIN_SUBJECTS")),
		Storage:              StorageBackend(strings.ToLower(getenv("STORAGE_BACKEND", string(StorageMemory)))),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		SignUpCode:           getenv("SIGNUP_CODE", "WKC2006"),
		DefaultExaminer:      getenv("DEFAULT_EXAMINER", "Bo Channon"),
		SignUpRatePerMinute:  10,
		IdempotencyRetention: 24 * time.Hour,
	}

	loc, err := time.LoadLocation(cfg.TZName)
	if err != nil {
		return AppConfig{}, fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	cfg.TZ = loc

	switch cfg.AuthMode {
	case AuthModeJWT, AuthModeDev:
	default:
		return AppConfig{}, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeJWT, AuthModeDev, cfg.AuthMode)
	}
	if cfg.AuthMode == AuthModeDev && cfg.Env == "production" {
		return AppConfig{}, fmt.Errorf("AUTH_MODE=dev is not allowed when APP_ENV=production")
	}

	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return AppConfig{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	case StorageRedis:
		if cfg.RedisURL == "" {
			return AppConfig{}, fmt.Errorf("REDIS_URL is required when STORAGE_BACKEND=redis")
		}
	default:
		return AppConfig{}, fmt.Errorf("STORAGE_BACKEND must be memory, postgres or redis, got %q", cfg.Storage)
	}

	if v := os.Getenv("SIGNUP_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return AppConfig{}, fmt.Errorf("SIGNUP_RATE_PER_MINUTE must be a non-negative integer, got %q", v)
		}
		cfg.SignUpRatePerMinute = n
	}
	if err := durationEnv("IDEMPOTENCY_RETENTION", &cfg.IdempotencyRetention); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
