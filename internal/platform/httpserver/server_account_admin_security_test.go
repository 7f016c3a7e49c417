package httpserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	accountadmin "dealerdesk/contexts/identity-access/account-admin-service"
	"dealerdesk/contexts/identity-access/account-admin-service/adapters/memory"
	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
)

func newTestServer() (*Server, *memory.Store) {
	module := accountadmin.NewInMemoryModule(slog.Default())
	return New(module, slog.Default(), ":0"), module.Store
}

func seedTestManager(store *memory.Store, uid, email string) {
	store.SeedUser(entities.IdentityUser{
		UID:    uid,
		Email:  email,
		Claims: map[string]any{"isManager": true},
	}, true)
}

func TestSetManagerRoleRequiresAuthorizationHeader(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/user-1/manager-role", bytes.NewReader([]byte(`{"is_manager":true}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-admin-1")
	req.Header.Set("X-User-Id", "mgr-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSetManagerRoleRequiresRequestIDHeader(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/user-1/manager-role", bytes.NewReader([]byte(`{"is_manager":true}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("X-User-Id", "mgr-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSetManagerRoleRequiresCallerHeader(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/user-1/manager-role", bytes.NewReader([]byte(`{"is_manager":true}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("X-Request-Id", "req-admin-2")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSetManagerRoleRejectsMalformedBody(t *testing.T) {
	server, store := newTestServer()
	seedTestManager(store, "mgr-1", "mgr1@dealerdesk.test")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/user-1/manager-role", bytes.NewReader([]byte(`{"is_manager":`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("X-Request-Id", "req-admin-3")
	req.Header.Set("X-User-Id", "mgr-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSetAccountStatusRequiresAuthorizationHeader(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/user-1/account-status", bytes.NewReader([]byte(`{"disabled":true}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-admin-4")
	req.Header.Set("X-User-Id", "mgr-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestListAuditRequiresAuthorizationHeader(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users/user-1/audit", nil)
	req.Header.Set("X-Request-Id", "req-admin-5")
	req.Header.Set("X-User-Id", "mgr-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestListAuditRejectsNonIntegerLimit(t *testing.T) {
	server, store := newTestServer()
	seedTestManager(store, "mgr-1", "mgr1@dealerdesk.test")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users/user-1/audit?limit=all", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("X-Request-Id", "req-admin-6")
	req.Header.Set("X-User-Id", "mgr-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}
