package identityadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "dealerdesk/contexts/identity-access/account-admin-service/domain/errors"
)

func TestGetUserDecodesAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/admin/v1/accounts/u1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Fatalf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uid":"u1","email":"u1@dealerdesk.test","display_name":"Uma One","disabled":false,"claims":{"isManager":true}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", nil)
	user, err := client.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.UID != "u1" || user.Email != "u1@dealerdesk.test" || !user.IsManagerClaim() {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestGetUserNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", nil)
	_, err := client.GetUser(context.Background(), "ghost")
	if !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMergeClaimsSendsPatch(t *testing.T) {
	var captured map[string]map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/admin/v1/accounts/u1/claims" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", nil)
	if err := client.MergeClaims(context.Background(), "u1", map[string]any{"isManager": true}); err != nil {
		t.Fatalf("merge claims: %v", err)
	}
	if captured["claims"]["isManager"] != true {
		t.Fatalf("unexpected body %+v", captured)
	}
}

func TestSetDisabledSendsPut(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/admin/v1/accounts/u1/status" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", nil)
	if err := client.SetDisabled(context.Background(), "u1", true); err != nil {
		t.Fatalf("set disabled: %v", err)
	}
	if captured["disabled"] != true {
		t.Fatalf("unexpected body %+v", captured)
	}
}

func TestServerErrorSurfacesStatusAndSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", nil)
	_, err := client.GetUser(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatal("502 must not map to not-found")
	}
}
