package idempotency

import (
	"context"
	"sync"

	"github.com/lilrhino/dojopal-api/internal/ports/out/idempotency"
)

// DefaultMaxEntries bounds the dev/test store so a long-running memory backend cannot grow
// without limit.
const DefaultMaxEntries = 10_000

// Store keeps replayable responses in a process-local map. Records are lost on restart,
// so retries across a redeploy are treated as new requests. When full, the oldest
// fingerprint is evicted first.
type Store struct {
	mu    sync.RWMutex
	max   int
	m     map[idempotency.Fingerprint]idempotency.Record
	order []idempotency.Fingerprint
}

func NewStore() *Store {
	return NewBoundedStore(DefaultMaxEntries)
}

// NewBoundedStore returns a store holding at most maxEntries fingerprints; zero or less disables the bound.
func NewBoundedStore(maxEntries int) *Store {
	return &Store{
		max: maxEntries,
		m:   make(map[idempotency.Fingerprint]idempotency.Record),
	}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.m[fp]
	if ok {
		rec.Body = append([]byte(nil), rec.Body...)
	}
	return rec, ok, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.m[fp]; !exists {
		s.order = append(s.order, fp)
	}
	rec.Body = append([]byte(nil), rec.Body...)
	s.m[fp] = rec

	for s.max > 0 && len(s.order) > s.max {
		delete(s.m, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}
