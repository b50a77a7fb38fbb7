// Package testutil opens a Redis client for adapter tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/lilrhino/dojopal-api/internal/adapters/redis"
)

// OpenClient skips the test unless REDIS_URL is set. The returned keys use a fresh prefix
// whose keys are removed when the test ends.
func OpenClient(t *testing.T) (*goredis.Client, redisadapter.Keys) {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set; skipping redis adapter tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redisadapter.NewClient(ctx, url)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	keys := redisadapter.Keys{Prefix: "dojopal-test-" + uuid.NewString()}

	t.Cleanup(func() {
		ctx := context.Background()
		iter := client.Scan(ctx, 0, keys.Prefix+":*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
		_ = client.Close()
	})
	return client, keys
}
