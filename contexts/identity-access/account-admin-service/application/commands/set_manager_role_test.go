package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealerdesk/contexts/identity-access/account-admin-service/adapters/memory"
	application "dealerdesk/contexts/identity-access/account-admin-service/application"
	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	domainerrors "dealerdesk/contexts/identity-access/account-admin-service/domain/errors"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
)

type flakyProfiles struct {
	*memory.Store
	failUpserts bool
}

func (f *flakyProfiles) UpsertProfile(ctx context.Context, patch ports.ProfilePatch, now time.Time) (entities.UserProfile, error) {
	if f.failUpserts {
		return entities.UserProfile{}, errors.New("document store unavailable")
	}
	return f.Store.UpsertProfile(ctx, patch, now)
}

func newRoleUseCase(store *memory.Store, profiles ports.ProfileStore) SetManagerRoleUseCase {
	if profiles == nil {
		profiles = store
	}
	validator := application.AccessValidator{Identity: store, Profiles: profiles}
	guard := application.ManagerCountGuard{Profiles: profiles}
	audit := application.AuditLogger{Sink: store, Clock: store, IDGenerator: store}
	return SetManagerRoleUseCase{
		Identity:     store,
		Profiles:     profiles,
		SyncFailures: store,
		Outbox:       store,
		Validator:    validator,
		Guard:        guard,
		Audit:        audit,
		Clock:        store,
		IDGenerator:  store,
	}
}

func seedManager(store *memory.Store, uid, email string) {
	store.SeedUser(entities.IdentityUser{
		UID:    uid,
		Email:  email,
		Claims: map[string]any{"isManager": true},
	}, true)
}

func TestSetManagerRoleRejectsMissingIdentifiers(t *testing.T) {
	store := memory.NewStore()
	useCase := newRoleUseCase(store, nil)

	_, err := useCase.Execute(context.Background(), SetManagerRoleCommand{TargetUID: "user_1", IsManager: true})
	if !errors.Is(err, domainerrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	_, err = useCase.Execute(context.Background(), SetManagerRoleCommand{CallerUID: "mgr_1", TargetUID: "  ", IsManager: true})
	if !errors.Is(err, domainerrors.ErrInvalidTargetID) {
		t.Fatalf("expected ErrInvalidTargetID, got %v", err)
	}

	if entries := store.AuditEntriesFor("user_1"); len(entries) != 0 {
		t.Fatalf("pre-authorization rejections must not be audited, got %d entries", len(entries))
	}
}

func TestSetManagerRoleDeniesNonManagerCaller(t *testing.T) {
	store := memory.NewStore()
	useCase := newRoleUseCase(store, nil)

	store.SeedUser(entities.IdentityUser{UID: "emp_1", Email: "emp1@dealerdesk.test"}, true)
	store.SeedUser(entities.IdentityUser{UID: "emp_2", Email: "emp2@dealerdesk.test"}, true)

	_, err := useCase.Execute(context.Background(), SetManagerRoleCommand{
		CallerUID: "emp_1",
		TargetUID: "emp_2",
		IsManager: true,
	})
	if !errors.Is(err, domainerrors.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	target, err := store.GetUser(context.Background(), "emp_2")
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if target.IsManagerClaim() {
		t.Fatal("denied request must not mutate target claims")
	}

	entries := store.AuditEntriesFor("emp_2")
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	if entries[0].Success {
		t.Fatal("denied attempt must be audited as failure")
	}
	if entries[0].PerformedBy != "emp_1" {
		t.Fatalf("unexpected audit performer %s", entries[0].PerformedBy)
	}
}

func TestSetManagerRoleRejectsSelfChange(t *testing.T) {
	store := memory.NewStore()
	useCase := newRoleUseCase(store, nil)
	seedManager(store, "mgr_1", "mgr1@dealerdesk.test")

	_, err := useCase.Execute(context.Background(), SetManagerRoleCommand{
		CallerUID: "mgr_1",
		TargetUID: "mgr_1",
		IsManager: false,
	})
	if !errors.Is(err, domainerrors.ErrSelfRoleChange) {
		t.Fatalf("expected ErrSelfRoleChange, got %v", err)
	}

	caller, _ := store.GetUser(context.Background(), "mgr_1")
	if !caller.IsManagerClaim() {
		t.Fatal("self-change rejection must leave caller claims intact")
	}
}

func TestSetManagerRoleUnknownTarget(t *testing.T) {
	store := memory.NewStore()
	useCase := newRoleUseCase(store, nil)
	seedManager(store, "mgr_1", "mgr1@dealerdesk.test")

	_, err := useCase.Execute(context.Background(), SetManagerRoleCommand{
		CallerUID: "mgr_1",
		TargetUID: "ghost",
		IsManager: true,
	})
	if !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSetManagerRoleBlocksLastManagerDemotion(t *testing.T) {
	store := memory.NewStore()
	useCase := newRoleUseCase(store, nil)

	// Caller holds the claim but has no profile document; the sole
	// documented manager is the target.
	store.SeedUser(entities.IdentityUser{
		UID:    "mgr_caller",
		Email:  "caller@dealerdesk.test",
		Claims: map[string]any{"isManager": true},
	}, false)
	seedManager(store, "mgr_last", "last@dealerdesk.test")

	_, err := useCase.Execute(context.Background(), SetManagerRoleCommand{
		CallerUID: "mgr_caller",
		TargetUID: "mgr_last",
		IsManager: false,
	})
	if !errors.Is(err, domainerrors.ErrLastManager) {
		t.Fatalf("expected ErrLastManager, got %v", err)
	}

	target, _ := store.GetUser(context.Background(), "mgr_last")
	if !target.IsManagerClaim() {
		t.Fatal("blocked demotion must not mutate target claims")
	}

	entries := store.AuditEntriesFor("mgr_last")
	if len(entries) != 1 || entries[0].Success {
		t.Fatalf("expected one failed audit entry, got %+v", entries)
	}
}

func TestSetManagerRoleDemotionWithRemainingManager(t *testing.T) {
	store := memory.NewStore()
	useCase := newRoleUseCase(store, nil)
	seedManager(store, "mgr_1", "mgr1@dealerdesk.test")
	seedManager(store, "mgr_2", "mgr2@dealerdesk.test")

	result, err := useCase.Execute(context.Background(), SetManagerRoleCommand{
		CallerUID: "mgr_1",
		TargetUID: "mgr_2",
		IsManager: false,
	})
	if err != nil {
		t.Fatalf("demote failed: %v", err)
	}
	if result.IsManager {
		t.Fatal("result should report manager revoked")
	}

	profile, found, err := store.GetProfile(context.Background(), "mgr_2")
	if err != nil || !found {
		t.Fatalf("read profile: found=%v err=%v", found, err)
	}
	if profile.IsManager {
		t.Fatal("profile document should mirror the revoked claim")
	}
}

func TestSetManagerRolePromotionCreatesProfile(t *testing.T) {
	store := memory.NewStore()
	useCase := newRoleUseCase(store, nil)
	seedManager(store, "mgr_1", "mgr1@dealerdesk.test")
	store.SeedUser(entities.IdentityUser{
		UID:         "emp_1",
		Email:       "emp1@dealerdesk.test",
		DisplayName: "Sam Seller",
		Claims:      map[string]any{"tenant": "lot-42"},
	}, false)

	result, err := useCase.Execute(context.Background(), SetManagerRoleCommand{
		CallerUID: "mgr_1",
		TargetUID: "emp_1",
		IsManager: true,
	})
	if err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if result.UID != "emp_1" || !result.IsManager {
		t.Fatalf("unexpected result %+v", result)
	}

	target, _ := store.GetUser(context.Background(), "emp_1")
	if !target.IsManagerClaim() {
		t.Fatal("manager claim not set on identity provider")
	}
	if target.Claims["tenant"] != "lot-42" {
		t.Fatal("claim merge must preserve unrelated claims")
	}

	profile, found, err := store.GetProfile(context.Background(), "emp_1")
	if err != nil || !found {
		t.Fatalf("profile document not created: found=%v err=%v", found, err)
	}
	if profile.Email != "emp1@dealerdesk.test" || profile.DisplayName != "Sam Seller" || !profile.IsManager {
		t.Fatalf("unexpected profile %+v", profile)
	}

	entries := store.AuditEntriesFor("emp_1")
	if len(entries) != 1 || !entries[0].Success {
		t.Fatalf("expected one successful audit entry, got %+v", entries)
	}
	if entries[0].Previous.IsManager == nil || *entries[0].Previous.IsManager {
		t.Fatalf("previous snapshot should capture non-manager state, got %+v", entries[0].Previous)
	}
	if entries[0].Next.IsManager == nil || !*entries[0].Next.IsManager {
		t.Fatalf("next snapshot should capture manager state, got %+v", entries[0].Next)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending outbox message, got %d", len(pending))
	}
}

func TestSetManagerRoleReapplyIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	useCase := newRoleUseCase(store, nil)
	seedManager(store, "mgr_1", "mgr1@dealerdesk.test")
	store.SeedUser(entities.IdentityUser{UID: "emp_1", Email: "emp1@dealerdesk.test"}, true)

	for i := 0; i < 2; i++ {
		if _, err := useCase.Execute(context.Background(), SetManagerRoleCommand{
			CallerUID: "mgr_1",
			TargetUID: "emp_1",
			IsManager: true,
		}); err != nil {
			t.Fatalf("attempt %d failed: %v", i+1, err)
		}
	}

	profile, _, _ := store.GetProfile(context.Background(), "emp_1")
	if !profile.IsManager {
		t.Fatal("profile should remain manager after replay")
	}
	// Replays are full operations: each records its own audit entry.
	if entries := store.AuditEntriesFor("emp_1"); len(entries) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(entries))
	}
}

func TestSetManagerRoleProfileWriteFailure(t *testing.T) {
	store := memory.NewStore()
	profiles := &flakyProfiles{Store: store, failUpserts: true}
	useCase := newRoleUseCase(store, profiles)
	seedManager(store, "mgr_1", "mgr1@dealerdesk.test")
	store.SeedUser(entities.IdentityUser{UID: "emp_1", Email: "emp1@dealerdesk.test"}, false)

	_, err := useCase.Execute(context.Background(), SetManagerRoleCommand{
		CallerUID: "mgr_1",
		TargetUID: "emp_1",
		IsManager: true,
	})
	if !errors.Is(err, domainerrors.ErrProfileSyncFailed) {
		t.Fatalf("expected ErrProfileSyncFailed, got %v", err)
	}

	// The identity write landed before the document write failed; the claim
	// stays set and the divergence is parked for reconciliation.
	target, _ := store.GetUser(context.Background(), "emp_1")
	if !target.IsManagerClaim() {
		t.Fatal("identity claim should remain set after partial write")
	}

	failures, err := store.ListPendingSyncFailures(context.Background(), 10)
	if err != nil {
		t.Fatalf("list sync failures: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected one pending sync failure, got %d", len(failures))
	}
	if failures[0].TargetUID != "emp_1" || failures[0].Patch.IsManager == nil || !*failures[0].Patch.IsManager {
		t.Fatalf("unexpected sync failure record %+v", failures[0])
	}

	entries := store.AuditEntriesFor("emp_1")
	if len(entries) != 1 || entries[0].Success {
		t.Fatalf("expected one failed audit entry, got %+v", entries)
	}
}
