package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	memaccountrepo "github.com/lilrhino/dojopal-api/internal/adapters/memory/accountrepo"
	memadminrepo "github.com/lilrhino/dojopal-api/internal/adapters/memory/adminrepo"
	memclock "github.com/lilrhino/dojopal-api/internal/adapters/memory/clock"
	memidempotency "github.com/lilrhino/dojopal-api/internal/adapters/memory/idempotency"
	"github.com/lilrhino/dojopal-api/internal/app/accounts"
	"github.com/lilrhino/dojopal-api/internal/app/roster"
	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

const studentBody = `{"firstName":"Ann","lastName":"Lee","emailAddress":"ann@example.com","phone":"07700 900123",` +
	`"address":"1 High St","postcode":"sw1a 1aa","occupation":"Nurse","birthDate":"01/02/1990",` +
	`"clubName":"Westside","agreedToMembershipTerms":true}`

type testAPI struct {
	h      http.Handler
	repo   *memaccountrepo.Repo
	admins *memadminrepo.Repo
	clk    *memclock.ManualClock
}

type apiOption func(*RouterOptions, *apiDeps)

type apiDeps struct {
	wrapRepo func(*memaccountrepo.Repo) accountrepo.Repository
}

// withRepo puts wrap's result between the services and the memory repo.
func withRepo(wrap func(*memaccountrepo.Repo) accountrepo.Repository) apiOption {
	return func(_ *RouterOptions, d *apiDeps) { d.wrapRepo = wrap }
}

func withRouterOptions(fn func(*RouterOptions)) apiOption {
	return func(o *RouterOptions, _ *apiDeps) { fn(o) }
}

// newTestAPI wires the memory backend behind dev auth, with "owner-1" approved and "boss"
// an admin.
func newTestAPI(t *testing.T, opts ...apiOption) testAPI {
	t.Helper()

	gate, err := accounts.NewGateCode(accounts.DefaultSignUpCode)
	if err != nil {
		t.Fatalf("NewGateCode: %v", err)
	}
	api := testAPI{
		repo:   memaccountrepo.NewRepo(),
		admins: memadminrepo.NewRepo(),
		clk:    memclock.NewManualClock(testNow),
	}
	ro := RouterOptions{AuthMiddleware: NewDevAuthMiddleware("")}
	var deps apiDeps
	for _, o := range opts {
		o(&ro, &deps)
	}

	if err := api.repo.Create(context.Background(), domain.Account{
		ID: "owner-1", FirstName: "Olive", LastName: "Owner", Email: "olive@example.com",
		ClubName: "Westside", Approved: true, CreatedAt: testNow, UpdatedAt: testNow,
	}); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	api.admins.SeedAdmin("boss")

	var repo accountrepo.Repository = api.repo
	if deps.wrapRepo != nil {
		repo = deps.wrapRepo(api.repo)
	}
	accountsSvc := accounts.NewService(repo, api.admins, api.clk, gate, nil)
	rosterSvc := roster.NewService(repo, api.clk, nil)
	srv := NewServer(accountsSvc, rosterSvc, memidempotency.NewStore(), api.clk, nil)
	api.h = NewRouterWithOptions(srv, ro)
	return api
}

// do sends a request as subject (none when empty). hdr holds extra header name/value pairs.
func (a testAPI) do(t *testing.T, method, path, subject, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v body=%s", v, err, rec.Body.String())
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status=%d, want %d body=%s", rec.Code, status, rec.Body.String())
	}
}

// wantError checks the status and error code and returns the decoded details.
func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) map[string]any {
	t.Helper()
	wantStatus(t, rec, status)
	er := decode[ErrorResponse](t, rec)
	if er.Error.Code != code {
		t.Fatalf("code=%q, want %q body=%s", er.Error.Code, code, rec.Body.String())
	}
	if rid, err := er.Error.RequestId.Get(); err != nil || rid == "" {
		t.Fatalf("requestId missing: %s", rec.Body.String())
	}
	if !er.Error.Details.IsSpecified() || er.Error.Details.IsNull() {
		return nil
	}
	d, _ := er.Error.Details.Get()
	return d
}

func addStudent(t *testing.T, api testAPI, subject string) Student {
	t.Helper()
	rec := api.do(t, http.MethodPost, "/accounts/me/students", subject, studentBody)
	wantStatus(t, rec, http.StatusCreated)
	return decode[StudentResponse](t, rec).Student
}
