package application

import (
	"context"
	"errors"
	"testing"

	"dealerdesk/contexts/identity-access/account-admin-service/adapters/memory"
	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
)

type failingIdentity struct {
	ports.IdentityStore
}

func (failingIdentity) GetUser(context.Context, string) (entities.IdentityUser, error) {
	return entities.IdentityUser{}, errors.New("identity provider timeout")
}

func TestAuthorizeViaClaim(t *testing.T) {
	store := memory.NewStore()
	store.SeedUser(entities.IdentityUser{
		UID:    "mgr_1",
		Email:  "mgr1@dealerdesk.test",
		Claims: map[string]any{"isManager": true},
	}, false)

	validator := AccessValidator{Identity: store, Profiles: store}
	authorized, email, err := validator.Authorize(context.Background(), "mgr_1")
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if !authorized {
		t.Fatal("claim-holding caller should be authorized")
	}
	if email != "mgr1@dealerdesk.test" {
		t.Fatalf("unexpected email %s", email)
	}
}

func TestAuthorizeViaProfileFallback(t *testing.T) {
	store := memory.NewStore()
	// Identity claim says non-manager (stale token shape); the profile
	// document already carries the promotion.
	store.SeedUser(entities.IdentityUser{UID: "mgr_2", Email: "mgr2@dealerdesk.test"}, true)
	if _, err := store.UpsertProfile(context.Background(), ports.ProfilePatch{
		UID:       "mgr_2",
		IsManager: entities.BoolPtr(true),
	}, store.Now()); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	validator := AccessValidator{Identity: store, Profiles: store}
	authorized, _, err := validator.Authorize(context.Background(), "mgr_2")
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if !authorized {
		t.Fatal("documented manager should be authorized via fallback")
	}
}

func TestAuthorizeDeniesNonManager(t *testing.T) {
	store := memory.NewStore()
	store.SeedUser(entities.IdentityUser{UID: "emp_1", Email: "emp1@dealerdesk.test"}, true)

	validator := AccessValidator{Identity: store, Profiles: store}
	authorized, _, err := validator.Authorize(context.Background(), "emp_1")
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if authorized {
		t.Fatal("plain employee must not be authorized")
	}
}

func TestAuthorizeFailsClosedOnIdentityError(t *testing.T) {
	store := memory.NewStore()
	validator := AccessValidator{Identity: failingIdentity{}, Profiles: store}

	authorized, _, err := validator.Authorize(context.Background(), "mgr_1")
	if err == nil {
		t.Fatal("identity read failure must surface an error")
	}
	if authorized {
		t.Fatal("identity read failure must not authorize")
	}
}

func TestAuthorizeIgnoresNonBooleanClaim(t *testing.T) {
	store := memory.NewStore()
	store.SeedUser(entities.IdentityUser{
		UID:    "odd_1",
		Email:  "odd1@dealerdesk.test",
		Claims: map[string]any{"isManager": "yes"},
	}, true)

	validator := AccessValidator{Identity: store, Profiles: store}
	authorized, _, err := validator.Authorize(context.Background(), "odd_1")
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if authorized {
		t.Fatal("non-boolean claim value must not grant access")
	}
}
