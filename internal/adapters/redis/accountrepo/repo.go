package accountrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/lilrhino/dojopal-api/internal/adapters/redis"
	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
)

// maxWatchRetries bounds optimistic retries for field-level updates.
const maxWatchRetries = 5

// Repo stores each account as a JSON string plus membership in an id index set.
type Repo struct {
	client *goredis.Client
	keys   redisadapter.Keys
}

func NewRepo(client *goredis.Client, keys redisadapter.Keys) *Repo {
	return &Repo{client: client, keys: keys}
}

func (r *Repo) Create(ctx context.Context, a domain.Account) error {
	doc, err := accountrepo.Marshal(a)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.keys.Account(a.ID), doc, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return accountrepo.ErrAlreadyExists
	}
	return r.client.SAdd(ctx, r.keys.AccountIndex(), string(a.ID)).Err()
}

func (r *Repo) Get(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	doc, err := r.client.Get(ctx, r.keys.Account(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Account{}, accountrepo.ErrNotFound
		}
		return domain.Account{}, err
	}
	return accountrepo.Unmarshal(id, doc)
}

func (r *Repo) Put(ctx context.Context, a domain.Account) error {
	doc, err := accountrepo.Marshal(a)
	if err != nil {
		return err
	}
	ok, err := r.client.SetXX(ctx, r.keys.Account(a.ID), doc, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return accountrepo.ErrNotFound
	}
	return nil
}

// SetApproved rewrites only the approved and updatedAt members of the stored document,
// leaving any fields this service does not model untouched.
func (r *Repo) SetApproved(ctx context.Context, id domain.AccountID, approved bool, at time.Time) error {
	key := r.keys.Account(id)
	update := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return accountrepo.ErrNotFound
			}
			return err
		}
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode account %q: %w", id, err)
		}
		doc["approved"], _ = json.Marshal(approved)
		doc["updatedAt"], _ = json.Marshal(at.UTC())
		next, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode account %q: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, update, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("set approval on %q: %w", id, goredis.TxFailedErr)
}

func (r *Repo) Delete(ctx context.Context, id domain.AccountID) error {
	n, err := r.client.Del(ctx, r.keys.Account(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return accountrepo.ErrNotFound
	}
	return r.client.SRem(ctx, r.keys.AccountIndex(), string(id)).Err()
}

func (r *Repo) List(ctx context.Context, limit int) ([]domain.Account, error) {
	ids, err := r.client.SMembers(ctx, r.keys.AccountIndex()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keys.Account(domain.AccountID(id))
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.Account, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Index entry outlived its document.
			continue
		}
		a, err := accountrepo.Unmarshal(domain.AccountID(ids[i]), []byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
