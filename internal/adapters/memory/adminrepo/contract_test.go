package adminrepo

import (
	"testing"

	"github.com/lilrhino/dojopal-api/internal/adapters/contracttest"
	"github.com/lilrhino/dojopal-api/internal/domain"
	adminrepoport "github.com/lilrhino/dojopal-api/internal/ports/out/adminrepo"
)

func TestContract_AdminRepo(t *testing.T) {
	contracttest.RunAdminRepo(t, func(t *testing.T) (adminrepoport.Repository, contracttest.SeedAdminFunc, func()) {
		t.Helper()
		r := NewRepo()
		seed := func(t *testing.T, id domain.AccountID, fields map[string]any) {
			t.Helper()
			r.Seed(id, fields)
		}
		return r, seed, nil
	})
}
