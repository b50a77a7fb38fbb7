package accountrepo

import (
	"testing"

	"github.com/lilrhino/dojopal-api/internal/adapters/contracttest"
	"github.com/lilrhino/dojopal-api/internal/adapters/redis/testutil"
	accountrepoport "github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
)

func TestContract_RedisAccountRepo(t *testing.T) {
	client, keys := testutil.OpenClient(t)

	contracttest.RunAccountRepo(t, func(t *testing.T) (accountrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(client, keys), nil
	})
}
