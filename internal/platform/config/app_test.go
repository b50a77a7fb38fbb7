package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppConfigFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "AUTH_MODE", "STORAGE_BACKEND", "SIGNUP_CODE", "DEFAULT_EXAMINER", "SIGNUP_RATE_PER_MINUTE", "APP_TIMEZONE", "DEV_ADMIN_SUBJECTS", "IDEMPOTENCY_RETENTION"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadAppConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadAppConfigFromEnv err=%v", err)
	}
	if cfg.Port != "8080" || cfg.AuthMode != AuthModeJWT || cfg.Storage != StorageMemory {
		t.Fatalf("cfg=%+v, want defaults", cfg)
	}
	if cfg.SignUpCode != "WKC2006" || cfg.DefaultExaminer != "Bo Channon" || cfg.SignUpRatePerMinute != 10 {
		t.Fatalf("cfg=%+v, want club defaults", cfg)
	}
	if cfg.TZ == nil || cfg.TZName != "Europe/London" || cfg.IdempotencyRetention != 24*time.Hour {
		t.Fatalf("cfg=%+v, want London time and 24h retention", cfg)
	}
}

func TestLoadAppConfigFromEnv_Errors(t *testing.T) {
	cases := []map[string]string{
		{"AUTH_MODE": "basic"},
		{"AUTH_MODE": "dev", "APP_ENV": "production"},
		{"STORAGE_BACKEND": "postgres", "DATABASE_URL": ""},
		{"STORAGE_BACKEND": "redis", "REDIS_URL": ""},
		{"STORAGE_BACKEND": "sqlite"},
		{"SIGNUP_RATE_PER_MINUTE": "-1"},
		{"APP_TIMEZONE": "Mars/Olympus"},
		{"IDEMPOTENCY_RETENTION": "a day"},
	}
	for _, env := range cases {
		t.Run("", func(t *testing.T) {
			for _, k := range []string{"AUTH_MODE", "APP_ENV", "STORAGE_BACKEND", "DATABASE_URL", "REDIS_URL", "SIGNUP_RATE_PER_MINUTE", "APP_TIMEZONE", "IDEMPOTENCY_RETENTION"} {
				t.Setenv(k, "")
			}
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadAppConfigFromEnv(); err == nil {
				t.Fatalf("env=%v err=nil, want error", env)
			}
		})
	}
}

func TestLoadAppConfigFromEnv_Lists(t *testing.T) {
	t.Setenv("DEV_ADMIN_SUBJECTS", " boss, ,ops ")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadAppConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadAppConfigFromEnv err=%v", err)
	}
	if len(cfg.DevAdminSubjects) != 2 || cfg.DevAdminSubjects[0] != "boss" || cfg.DevAdminSubjects[1] != "ops" {
		t.Fatalf("DevAdminSubjects=%q", cfg.DevAdminSubjects)
	}
	if cfg.Storage != StorageRedis {
		t.Fatalf("Storage=%q, want redis", cfg.Storage)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file err=%v, want nil", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DOJOPAL_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DOJOPAL_TEST_VALUE", "")
	os.Unsetenv("DOJOPAL_TEST_VALUE")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv err=%v", err)
	}
	if got := os.Getenv("DOJOPAL_TEST_VALUE"); got != "from-file" {
		t.Fatalf("DOJOPAL_TEST_VALUE=%q, want from-file", got)
	}
}

func TestLoadJWTConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_ISSUER", "https://issuer.test")
	t.Setenv("JWT_AUDIENCE", "dojopal")
	t.Setenv("JWT_JWKS_URL", "https://issuer.test/jwks")
	t.Setenv("JWT_CLOCK_SKEW", "5s")
	t.Setenv("JWT_JWKS_REFRESH_INTERVAL", "")
	t.Setenv("JWT_JWKS_MIN_REFRESH_INTERVAL", "")
	t.Setenv("JWT_HTTP_TIMEOUT", "")

	cfg, err := LoadJWTConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadJWTConfigFromEnv err=%v", err)
	}
	if cfg.ClockSkew != 5*time.Second || cfg.JWKSRefreshInterval != 5*time.Minute {
		t.Fatalf("cfg=%+v", cfg)
	}

	t.Setenv("JWT_CLOCK_SKEW", "soon")
	if _, err := LoadJWTConfigFromEnv(); err == nil {
		t.Fatalf("bad skew err=nil")
	}
	t.Setenv("JWT_ISSUER", "")
	if _, err := LoadJWTConfigFromEnv(); err == nil {
		t.Fatalf("missing issuer err=nil")
	}
}
