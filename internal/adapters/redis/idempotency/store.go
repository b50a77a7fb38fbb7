// Package idempotency stores replayable responses as Redis hashes that expire on their own.
package idempotency

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/lilrhino/dojopal-api/internal/adapters/redis"
	"github.com/lilrhino/dojopal-api/internal/ports/out/idempotency"
)

// DefaultTTL matches the retention the Postgres store is pruned to.
const DefaultTTL = 24 * time.Hour

type Store struct {
	client *goredis.Client
	keys   redisadapter.Keys
	ttl    time.Duration
}

// NewStore keeps records for ttl; ttl <= 0 means DefaultTTL.
func NewStore(client *goredis.Client, keys redisadapter.Keys, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, keys: keys, ttl: ttl}
}

func (s *Store) key(fp idempotency.Fingerprint) string {
	return s.keys.Idempotency(fp.Digest(s.keys.Prefix))
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(fp)).Result()
	if err != nil {
		return idempotency.Record{}, false, err
	}
	if len(fields) == 0 {
		return idempotency.Record{}, false, nil
	}
	status, err := strconv.Atoi(fields["status"])
	if err != nil {
		return idempotency.Record{}, false, fmt.Errorf("decode idempotency status: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, fields["createdAt"])
	if err != nil {
		return idempotency.Record{}, false, fmt.Errorf("decode idempotency createdAt: %w", err)
	}
	return idempotency.Record{
		StatusCode:  status,
		ContentType: fields["contentType"],
		Body:        []byte(fields["body"]),
		CreatedAt:   created,
	}, true, nil
}

// Put overwrites the record and restarts its expiry.
func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	key := s.key(fp)
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key,
			"status", rec.StatusCode,
			"contentType", rec.ContentType,
			"body", rec.Body,
			"createdAt", rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}
