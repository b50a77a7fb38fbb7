package adminrepo

import (
	"context"
	"maps"
	"sync"

	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/adminrepo"
)

// Repo is an in-memory implementation of adminrepo.Repository.
// Seed is provided for local development and tests; the API never writes markers.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.AccountID]map[string]any
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.AccountID]map[string]any)}
}

// Seed stores fields verbatim under id.
func (r *Repo) Seed(id domain.AccountID, fields map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = maps.Clone(fields)
}

// SeedAdmin stores a well-formed marker for id.
func (r *Repo) SeedAdmin(id domain.AccountID) {
	r.Seed(id, map[string]any{"userId": string(id)})
}

func (r *Repo) Get(ctx context.Context, id domain.AccountID) (domain.AdminMarker, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields, ok := r.byID[id]
	if !ok {
		return domain.AdminMarker{}, adminrepo.ErrNotFound
	}
	return domain.AdminMarker{Key: string(id), Fields: maps.Clone(fields)}, nil
}
