package adminrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/adminrepo"
)

// Repo reads admin markers stored as raw jsonb documents so structural checks see every field.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Get(ctx context.Context, id domain.AccountID) (domain.AdminMarker, error) {
	if r.pool == nil {
		return domain.AdminMarker{}, errors.New("nil postgres pool")
	}
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM admin_markers WHERE id = $1`, string(id)).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AdminMarker{}, adminrepo.ErrNotFound
		}
		return domain.AdminMarker{}, err
	}
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return domain.AdminMarker{}, fmt.Errorf("decode admin marker %q: %w", id, err)
	}
	return domain.AdminMarker{Key: string(id), Fields: fields}, nil
}

// Seed upserts a marker document. It backs provisioning scripts and tests.
func (r *Repo) Seed(ctx context.Context, id domain.AccountID, fields map[string]any) error {
	doc, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode admin marker %q: %w", id, err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO admin_markers (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc
	`, string(id), doc)
	return err
}
