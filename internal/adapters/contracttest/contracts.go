package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lilrhino/dojopal-api/internal/domain"
	accountrepoport "github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
	adminrepoport "github.com/lilrhino/dojopal-api/internal/ports/out/adminrepo"
	idempotencyport "github.com/lilrhino/dojopal-api/internal/ports/out/idempotency"
)

type CleanupFunc = func()

// SeedAdminFunc stores a raw admin marker document with the given fields under id.
type SeedAdminFunc func(t *testing.T, id domain.AccountID, fields map[string]any)

type AccountRepoFactory func(t *testing.T) (accountrepoport.Repository, CleanupFunc)
type AdminRepoFactory func(t *testing.T) (adminrepoport.Repository, SeedAdminFunc, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:     idempotencyport.Key("k-" + uuid.NewString()),
		Subject: domain.SubjectID("sub-1"),
		Method:  "POST",
		Route:   "/accounts/{accountId}/students",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v, want miss", ok, err)
	}

	rec := idempotencyport.Record{
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	rec.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	other := fp
	other.BodyHash = "abc"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get other body hash: ok=%v err=%v, want miss", ok, err)
	}
}

func sampleAccount(id domain.AccountID, now time.Time) domain.Account {
	return domain.Account{
		ID:        id,
		FirstName: "Bo",
		LastName:  "Channon",
		Email:     "bo@example.com",
		ClubName:  "Westside",
		CreatedAt: now,
		UpdatedAt: now,
		Students: []domain.Student{{
			ID:         domain.StudentID(uuid.NewString()),
			FirstName:  "Ada",
			LastName:   "Lovelace",
			Email:      "ada@example.com",
			Postcode:   "SW1A 1AA",
			LicExpDate: "01/01/2030",
			GradingHistory: []domain.Grade{
				{DatePassed: "01/02/2024", Examiner: "Bo Channon", Name: "10th Kyu", CreatedAt: now},
			},
			DateJoined: now,
		}},
	}
}

func RunAccountRepo(t *testing.T, newRepo AccountRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	aID := domain.AccountID("acct-" + uuid.NewString())
	a := sampleAccount(aID, now)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if err := repo.Create(ctx, a); !errors.Is(err, accountrepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.Get(ctx, aID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != a.Email || len(got.Students) != 1 || len(got.Students[0].GradingHistory) != 1 {
		t.Fatalf("Get()=%+v, want stored account", got)
	}
	if got.Students[0].ID != a.Students[0].ID || !got.CreatedAt.Equal(now) {
		t.Fatalf("Get() lost student id or timestamps: %+v", got)
	}

	if _, err := repo.Get(ctx, domain.AccountID("missing-"+uuid.NewString())); !errors.Is(err, accountrepoport.ErrNotFound) {
		t.Fatalf("Get missing err=%v, want ErrNotFound", err)
	}

	// Put replaces the whole document.
	later := now.Add(time.Hour)
	got.Students = append(got.Students, domain.Student{
		ID:                       domain.StudentID(uuid.NewString()),
		FirstName:                "Bob",
		LicenseApplicationStatus: domain.LicenseApplicationPending,
		DateJoined:               later,
	})
	got.ClubName = "Eastside"
	got.UpdatedAt = later
	if err := repo.Put(ctx, got); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err = repo.Get(ctx, aID)
	if err != nil {
		t.Fatalf("Get after Put: %v", err)
	}
	if got.ClubName != "Eastside" || len(got.Students) != 2 || got.Students[1].LicenseApplicationStatus != domain.LicenseApplicationPending {
		t.Fatalf("Get after Put=%+v", got)
	}
	if got.Students[0].FirstName != "Ada" || got.Students[1].FirstName != "Bob" {
		t.Fatalf("student order not preserved: %+v", got.Students)
	}

	// SetApproved touches only approval and updatedAt.
	approvedAt := later.Add(time.Hour)
	if err := repo.SetApproved(ctx, aID, true, approvedAt); err != nil {
		t.Fatalf("SetApproved: %v", err)
	}
	got, err = repo.Get(ctx, aID)
	if err != nil {
		t.Fatalf("Get after SetApproved: %v", err)
	}
	if !got.Approved || !got.UpdatedAt.Equal(approvedAt) || len(got.Students) != 2 || got.ClubName != "Eastside" {
		t.Fatalf("Get after SetApproved=%+v", got)
	}
	missing := domain.AccountID("missing-" + uuid.NewString())
	if err := repo.SetApproved(ctx, missing, true, approvedAt); !errors.Is(err, accountrepoport.ErrNotFound) {
		t.Fatalf("SetApproved missing err=%v, want ErrNotFound", err)
	}
	if err := repo.Put(ctx, sampleAccount(missing, now)); !errors.Is(err, accountrepoport.ErrNotFound) {
		t.Fatalf("Put missing err=%v, want ErrNotFound", err)
	}

	// List is ordered by id and honours the limit.
	bID := domain.AccountID("acct-" + uuid.NewString())
	if err := repo.Create(ctx, sampleAccount(bID, now)); err != nil {
		t.Fatalf("Create b: %v", err)
	}
	all, err := repo.List(ctx, 1000)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seen := map[domain.AccountID]bool{}
	for i, acct := range all {
		seen[acct.ID] = true
		if i > 0 && all[i-1].ID >= acct.ID {
			t.Fatalf("List not ordered by id at %d: %q >= %q", i, all[i-1].ID, acct.ID)
		}
	}
	if !seen[aID] || !seen[bID] {
		t.Fatalf("List missing created accounts: %v", seen)
	}
	one, err := repo.List(ctx, 1)
	if err != nil || len(one) != 1 {
		t.Fatalf("List(1) len=%d err=%v, want 1", len(one), err)
	}

	if err := repo.Delete(ctx, aID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, aID); !errors.Is(err, accountrepoport.ErrNotFound) {
		t.Fatalf("Get after Delete err=%v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, aID); !errors.Is(err, accountrepoport.ErrNotFound) {
		t.Fatalf("Delete twice err=%v, want ErrNotFound", err)
	}
}

func RunAdminRepo(t *testing.T, newRepo AdminRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, seed, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	id := domain.AccountID("admin-" + uuid.NewString())
	if _, err := repo.Get(ctx, id); !errors.Is(err, adminrepoport.ErrNotFound) {
		t.Fatalf("Get missing err=%v, want ErrNotFound", err)
	}

	seed(t, id, map[string]any{"userId": string(id)})
	m, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Key != string(id) || !domain.IsAdmin(id, m, true) {
		t.Fatalf("marker=%+v, want valid admin marker for %q", m, id)
	}

	extra := domain.AccountID("admin-" + uuid.NewString())
	seed(t, extra, map[string]any{"userId": string(extra), "role": "admin"})
	m, err = repo.Get(ctx, extra)
	if err != nil {
		t.Fatalf("Get extra: %v", err)
	}
	if len(m.Fields) != 2 || domain.IsAdmin(extra, m, true) {
		t.Fatalf("marker=%+v, want extra field preserved and rejected", m)
	}
}
