package accountrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lilrhino/dojopal-api/internal/adapters/postgres"
	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
)

// Repo stores each account as one jsonb document.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, a domain.Account) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	doc, err := accountrepo.Marshal(a)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO accounts (id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, string(a.ID), doc, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return accountrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	if r.pool == nil {
		return domain.Account{}, errors.New("nil postgres pool")
	}
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM accounts WHERE id = $1`, string(id)).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, accountrepo.ErrNotFound
		}
		return domain.Account{}, err
	}
	return accountrepo.Unmarshal(id, doc)
}

func (r *Repo) Put(ctx context.Context, a domain.Account) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	doc, err := accountrepo.Marshal(a)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET doc = $2, updated_at = $3
		WHERE id = $1
	`, string(a.ID), doc, a.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return accountrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) SetApproved(ctx context.Context, id domain.AccountID, approved bool, at time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	at = at.UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET doc = jsonb_set(jsonb_set(doc, '{approved}', to_jsonb($2::boolean)), '{updatedAt}', to_jsonb($3::text)),
		    updated_at = $4
		WHERE id = $1
	`, string(id), approved, at.Format(time.RFC3339Nano), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return accountrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.AccountID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return accountrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context, limit int) ([]domain.Account, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, doc FROM accounts
		ORDER BY id COLLATE "C"
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		a, err := accountrepo.Unmarshal(domain.AccountID(id), doc)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
