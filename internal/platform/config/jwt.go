package config

import (
	"fmt"
	"os"
	"time"
)

// JWTConfig configures bearer token verification against the identity provider's JWKS.
type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string

	ClockSkew              time.Duration
	JWKSRefreshInterval    time.Duration
	JWKSMinRefreshInterval time.Duration

	HTTPTimeout time.Duration
}

func LoadJWTConfigFromEnv() (JWTConfig, error) {
	cfg := JWTConfig{
		Issuer:                 os.Getenv("JWT_ISSUER"),
		Audience:               os.Getenv("JWT_AUDIENCE"),
		JWKSURL:                os.Getenv("JWT_JWKS_URL"),
		ClockSkew:              30 * time.Second,
		JWKSRefreshInterval:    5 * time.Minute,
		JWKSMinRefreshInterval: 10 * time.Second,
		HTTPTimeout:            5 * time.Second,
	}
	if cfg.Issuer == "" || cfg.Audience == "" || cfg.JWKSURL == "" {
		return JWTConfig{}, fmt.Errorf("missing required env vars: JWT_ISSUER, JWT_AUDIENCE, JWT_JWKS_URL")
	}

	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"JWT_CLOCK_SKEW", &cfg.ClockSkew},
		{"JWT_JWKS_REFRESH_INTERVAL", &cfg.JWKSRefreshInterval},
		{"JWT_JWKS_MIN_REFRESH_INTERVAL", &cfg.JWKSMinRefreshInterval},
		{"JWT_HTTP_TIMEOUT", &cfg.HTTPTimeout},
	} {
		if err := durationEnv(d.key, d.dst); err != nil {
			return JWTConfig{}, err
		}
	}
	return cfg, nil
}

func durationEnv(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s must be a duration (e.g. 30s): %w", key, err)
	}
	*dst = d
	return nil
}
