// Package redis holds the shared go-redis plumbing for the Redis adapters.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lilrhino/dojopal-api/internal/domain"
)

const DefaultKeyPrefix = "dojopal"

// NewClient parses a redis:// URL and verifies connectivity.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Keys builds the key layout shared by the Redis adapters.
type Keys struct {
	Prefix string
}

func (k Keys) prefix() string {
	if k.Prefix == "" {
		return DefaultKeyPrefix
	}
	return k.Prefix
}

// Account is the string key holding one account's JSON document.
func (k Keys) Account(id domain.AccountID) string {
	return k.prefix() + ":account:" + string(id)
}

// AccountIndex is the set of every stored account id.
func (k Keys) AccountIndex() string {
	return k.prefix() + ":accounts"
}

// Admin is the string key holding one admin marker document.
func (k Keys) Admin(id domain.AccountID) string {
	return k.prefix() + ":admin:" + string(id)
}

// Idempotency is the hash holding one stored response. digest identifies the fingerprint.
func (k Keys) Idempotency(digest string) string {
	return k.prefix() + ":idem:" + digest
}
