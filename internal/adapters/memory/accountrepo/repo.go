package accountrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
)

// Repo is an in-memory implementation of accountrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.AccountID]domain.Account
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.AccountID]domain.Account)}
}

func (r *Repo) Create(ctx context.Context, a domain.Account) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; ok {
		return accountrepo.ErrAlreadyExists
	}
	r.byID[a.ID] = a.Clone()
	return nil
}

func (r *Repo) Get(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.Account{}, accountrepo.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *Repo) Put(ctx context.Context, a domain.Account) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; !ok {
		return accountrepo.ErrNotFound
	}
	r.byID[a.ID] = a.Clone()
	return nil
}

func (r *Repo) SetApproved(ctx context.Context, id domain.AccountID, approved bool, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return accountrepo.ErrNotFound
	}
	a.Approved = approved
	a.UpdatedAt = at
	r.byID[id] = a
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.AccountID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return accountrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) List(ctx context.Context, limit int) ([]domain.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.AccountID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id].Clone())
	}
	return out, nil
}
