// Package idempotency keeps replayable responses in the idempotency_records table.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lilrhino/dojopal-api/internal/ports/out/idempotency"
)

var errNilPool = errors.New("nil postgres pool")

// Store indexes rows by the fingerprint digest, scoped by token issuer so subjects from
// different identity providers never share records. subject and route are kept for
// inspection only.
type Store struct {
	pool   *pgxpool.Pool
	issuer string
}

func NewStore(pool *pgxpool.Pool, jwtIssuer string) *Store {
	return &Store{pool: pool, issuer: jwtIssuer}
}

// Prune deletes records created before cutoff and returns the number removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.pool == nil {
		return 0, errNilPool
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_records WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.pool == nil {
		return idempotency.Record{}, false, errNilPool
	}
	var rec idempotency.Record
	err := s.pool.QueryRow(ctx,
		`SELECT status_code, content_type, body, created_at FROM idempotency_records WHERE digest = $1`,
		fp.Digest(s.issuer),
	).Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &rec.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return idempotency.Record{}, false, nil
	case err != nil:
		return idempotency.Record{}, false, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.pool == nil {
		return errNilPool
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Body == nil {
		rec.Body = []byte{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_records (digest, subject, route, status_code, content_type, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (digest) DO UPDATE SET
			status_code  = EXCLUDED.status_code,
			content_type = EXCLUDED.content_type,
			body         = EXCLUDED.body,
			created_at   = EXCLUDED.created_at
	`,
		fp.Digest(s.issuer), string(fp.Subject), fp.Route,
		rec.StatusCode, rec.ContentType, rec.Body, rec.CreatedAt.UTC(),
	)
	return err
}
