package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lilrhino/dojopal-api/internal/adapters/httpapi"
	memaccountrepo "github.com/lilrhino/dojopal-api/internal/adapters/memory/accountrepo"
	memadminrepo "github.com/lilrhino/dojopal-api/internal/adapters/memory/adminrepo"
	memclock "github.com/lilrhino/dojopal-api/internal/adapters/memory/clock"
	memidempotency "github.com/lilrhino/dojopal-api/internal/adapters/memory/idempotency"
	pgaccountrepo "github.com/lilrhino/dojopal-api/internal/adapters/postgres/accountrepo"
	pgadminrepo "github.com/lilrhino/dojopal-api/internal/adapters/postgres/adminrepo"
	pgidempotency "github.com/lilrhino/dojopal-api/internal/adapters/postgres/idempotency"
	postgres_testutil "github.com/lilrhino/dojopal-api/internal/adapters/postgres/testutil"
	redisaccountrepo "github.com/lilrhino/dojopal-api/internal/adapters/redis/accountrepo"
	redisadminrepo "github.com/lilrhino/dojopal-api/internal/adapters/redis/adminrepo"
	redisidempotency "github.com/lilrhino/dojopal-api/internal/adapters/redis/idempotency"
	redis_testutil "github.com/lilrhino/dojopal-api/internal/adapters/redis/testutil"
	"github.com/lilrhino/dojopal-api/internal/app/accounts"
	"github.com/lilrhino/dojopal-api/internal/app/roster"
	accountrepoport "github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
	adminrepoport "github.com/lilrhino/dojopal-api/internal/ports/out/adminrepo"
	idempotencyport "github.com/lilrhino/dojopal-api/internal/ports/out/idempotency"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
	backendRedis    backend = "redis"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "redis":
		return []backend{backendRedis}
	case "all":
		return []backend{backendMemory, backendPostgres, backendRedis}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|redis|all)")
		return nil
	}
}

// adminSubject is seeded as an administrator on every backend.
const adminSubject = "itest-admin"

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	const issuer = "itest-issuer"
	ctx := context.Background()
	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	marker := map[string]any{"userId": adminSubject}

	var (
		accountRepo accountrepoport.Repository
		adminRepo   adminrepoport.Repository
		idemStore   idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		admins := pgadminrepo.NewRepo(pool)
		if err := admins.Seed(ctx, adminSubject, marker); err != nil {
			t.Fatalf("seed admin: %v", err)
		}
		accountRepo, adminRepo = pgaccountrepo.NewRepo(pool), admins
		idemStore = pgidempotency.NewStore(pool, issuer)
	case backendRedis:
		client, keys := redis_testutil.OpenClient(t)
		admins := redisadminrepo.NewRepo(client, keys)
		if err := admins.Seed(ctx, adminSubject, marker); err != nil {
			t.Fatalf("seed admin: %v", err)
		}
		accountRepo, adminRepo = redisaccountrepo.NewRepo(client, keys), admins
		idemStore = redisidempotency.NewStore(client, keys, time.Hour)
	case backendMemory:
		admins := memadminrepo.NewRepo()
		admins.Seed(adminSubject, marker)
		accountRepo, adminRepo = memaccountrepo.NewRepo(), admins
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	gate, err := accounts.NewGateCode(accounts.DefaultSignUpCode)
	if err != nil {
		t.Fatalf("NewGateCode: %v", err)
	}
	accountsSvc := accounts.NewService(accountRepo, adminRepo, clk, gate, nil)
	rosterSvc := roster.NewService(accountRepo, clk, nil)
	api := httpapi.NewServer(accountsSvc, rosterSvc, idemStore, clk, nil)

	// Dev auth with no default subject: every request must name its caller, so auth failures
	// stay testable.
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{AuthMiddleware: httpapi.NewDevAuthMiddleware("")})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any, hdr ...string) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestID string         `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) errorResponse {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	if got.Error.RequestID == "" {
		t.Fatalf("expected requestId; body=%s", string(body))
	}
	return got
}
