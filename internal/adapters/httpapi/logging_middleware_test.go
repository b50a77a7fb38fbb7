package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_RecordsRouteAndStatus(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	api := newTestAPI(t, withRouterOptions(func(o *RouterOptions) {
		o.Logger = zap.New(core)
	}))

	wantStatus(t, api.do(t, http.MethodGet, "/accounts/owner-1", "owner-1", ""), http.StatusOK)
	wantStatus(t, api.do(t, http.MethodGet, "/accounts/owner-1", "ghost", ""), http.StatusUnauthorized)

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2", len(entries))
	}
	ok, denied := entries[0], entries[1]
	if ok.Level != zapcore.InfoLevel || denied.Level != zapcore.WarnLevel {
		t.Fatalf("levels=%v,%v, want info,warn", ok.Level, denied.Level)
	}
	fields := ok.ContextMap()
	route, _ := fields["route"].(string)
	if !strings.HasPrefix(route, "/accounts/{accountId}") || fields["status"] != int64(http.StatusOK) || fields["subject"] != "owner-1" {
		t.Fatalf("fields=%v", fields)
	}
}
