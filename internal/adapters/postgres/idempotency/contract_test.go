package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lilrhino/dojopal-api/internal/adapters/contracttest"
	"github.com/lilrhino/dojopal-api/internal/adapters/postgres/testutil"
	idempotencyport "github.com/lilrhino/dojopal-api/internal/ports/out/idempotency"
)

func TestContract_PostgresIdempotencyStore(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)
	issuer := "https://issuer.test"

	contracttest.RunIdempotencyStore(t, func(t *testing.T) (idempotencyport.Store, func()) {
		t.Helper()
		return NewStore(pool, issuer), nil
	})
}

func TestStore_Prune(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)
	ctx := context.Background()
	s := NewStore(pool, "https://issuer.test")

	fp := idempotencyport.Fingerprint{Key: idempotencyport.Key("prune-" + uuid.NewString()), Subject: "sub-1", Method: "POST", Route: "/accounts"}
	if err := s.Put(ctx, fp, idempotencyport.Record{StatusCode: 201, CreatedAt: time.Unix(100, 0)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Prune(ctx, time.Unix(200, 0)); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if _, ok, err := s.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get after Prune ok=%v err=%v, want miss", ok, err)
	}
}
