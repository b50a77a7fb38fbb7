package adminrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/lilrhino/dojopal-api/internal/adapters/redis"
	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/adminrepo"
)

type Repo struct {
	client *goredis.Client
	keys   redisadapter.Keys
}

func NewRepo(client *goredis.Client, keys redisadapter.Keys) *Repo {
	return &Repo{client: client, keys: keys}
}

func (r *Repo) Get(ctx context.Context, id domain.AccountID) (domain.AdminMarker, error) {
	raw, err := r.client.Get(ctx, r.keys.Admin(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.AdminMarker{}, adminrepo.ErrNotFound
		}
		return domain.AdminMarker{}, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.AdminMarker{}, fmt.Errorf("decode admin marker %q: %w", id, err)
	}
	return domain.AdminMarker{Key: string(id), Fields: fields}, nil
}

// Seed stores a marker document verbatim.
func (r *Repo) Seed(ctx context.Context, id domain.AccountID, fields map[string]any) error {
	doc, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode admin marker %q: %w", id, err)
	}
	return r.client.Set(ctx, r.keys.Admin(id), doc, 0).Err()
}
