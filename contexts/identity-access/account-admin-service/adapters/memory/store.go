package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	domainerrors "dealerdesk/contexts/identity-access/account-admin-service/domain/errors"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing every account-admin port,
// including the identity-provider boundary. It is intended for tests and
// local development wiring.
type Store struct {
	mu sync.RWMutex

	identities map[string]entities.IdentityUser
	profiles   map[string]entities.UserProfile

	audit    []entities.AuditEntry
	failures map[string]ports.SyncFailure
	outbox   map[string]outboxRow
}

type outboxRow struct {
	ports.OutboxMessage
	PublishedAt *time.Time
}

// NewStore builds an empty in-memory adapter. Accounts are added with
// SeedUser; the module never bootstraps managers itself.
func NewStore() *Store {
	return &Store{
		identities: make(map[string]entities.IdentityUser),
		profiles:   make(map[string]entities.UserProfile),
		failures:   make(map[string]ports.SyncFailure),
		outbox:     make(map[string]outboxRow),
	}
}

// SeedUser registers an identity-provider account and, when withProfile is
// set, a matching profile document.
func (s *Store) SeedUser(user entities.IdentityUser, withProfile bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Claims == nil {
		user.Claims = make(map[string]any)
	}
	s.identities[user.UID] = user
	if withProfile {
		s.profiles[user.UID] = entities.UserProfile{
			UID:         user.UID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			IsManager:   user.IsManagerClaim(),
			IsActive:    !user.Disabled,
		}
	}
}

func (s *Store) GetUser(_ context.Context, uid string) (entities.IdentityUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.identities[uid]
	if !ok {
		return entities.IdentityUser{}, domainerrors.ErrUserNotFound
	}
	claims := make(map[string]any, len(user.Claims))
	for key, value := range user.Claims {
		claims[key] = value
	}
	user.Claims = claims
	return user, nil
}

func (s *Store) MergeClaims(_ context.Context, uid string, claims map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.identities[uid]
	if !ok {
		return domainerrors.ErrUserNotFound
	}
	for key, value := range claims {
		user.Claims[key] = value
	}
	s.identities[uid] = user
	return nil
}

func (s *Store) SetDisabled(_ context.Context, uid string, disabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.identities[uid]
	if !ok {
		return domainerrors.ErrUserNotFound
	}
	user.Disabled = disabled
	s.identities[uid] = user
	return nil
}

func (s *Store) GetProfile(_ context.Context, uid string) (entities.UserProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[uid]
	if !ok {
		return entities.UserProfile{}, false, nil
	}
	return profile, true, nil
}

func (s *Store) UpsertProfile(_ context.Context, patch ports.ProfilePatch, now time.Time) (entities.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[patch.UID]
	if !ok {
		profile = entities.UserProfile{
			UID:      patch.UID,
			IsActive: true,
		}
	}
	if patch.Email != "" {
		profile.Email = patch.Email
	}
	if patch.DisplayName != "" {
		profile.DisplayName = patch.DisplayName
	}
	if patch.IsManager != nil {
		profile.IsManager = *patch.IsManager
	}
	if patch.IsActive != nil {
		profile.IsActive = *patch.IsActive
	}
	if patch.DisabledAt != nil {
		at := patch.DisabledAt.UTC()
		profile.DisabledAt = &at
	}
	if patch.DisabledBy != nil {
		profile.DisabledBy = *patch.DisabledBy
	}
	if patch.ClearDisabled {
		profile.DisabledAt = nil
		profile.DisabledBy = ""
	}
	profile.UpdatedAt = now.UTC()
	s.profiles[patch.UID] = profile
	return profile, nil
}

func (s *Store) CountManagers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, profile := range s.profiles {
		if profile.IsManager {
			count++
		}
	}
	return count, nil
}

func (s *Store) AppendAudit(_ context.Context, entry entities.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) ListAuditEntries(_ context.Context, targetUID string, limit int) ([]entities.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	items := make([]entities.AuditEntry, 0)
	for _, entry := range s.audit {
		if entry.TargetUID == targetUID {
			items = append(items, entry)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RecordedAt.After(items[j].RecordedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// AuditEntriesFor returns every recorded entry for a target in append order.
// Test helper; the mutation pipeline never reads audit rows.
func (s *Store) AuditEntriesFor(targetUID string) []entities.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.AuditEntry, 0)
	for _, entry := range s.audit {
		if entry.TargetUID == targetUID {
			items = append(items, entry)
		}
	}
	return items
}

func (s *Store) RecordSyncFailure(_ context.Context, failure ports.SyncFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if failure.FailureID == "" {
		failure.FailureID = uuid.NewString()
	}
	s.failures[failure.FailureID] = failure
	return nil
}

func (s *Store) ListPendingSyncFailures(_ context.Context, limit int) ([]ports.SyncFailure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]ports.SyncFailure, 0, len(s.failures))
	for _, failure := range s.failures {
		if failure.ResolvedAt == nil {
			rows = append(rows, failure)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].OccurredAt.Before(rows[j].OccurredAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) MarkSyncFailureResolved(_ context.Context, failureID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	failure, ok := s.failures[failureID]
	if !ok {
		return errors.New("sync failure record not found")
	}
	value := at.UTC()
	failure.ResolvedAt = &value
	s.failures[failureID] = failure
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.outbox[message.OutboxID]; exists {
		return errors.New("outbox record already exists")
	}
	message.Payload = append([]byte(nil), message.Payload...)
	s.outbox[message.OutboxID] = outboxRow{OutboxMessage: message}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.PublishedAt == nil {
			rows = append(rows, row.OutboxMessage)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[outboxID]
	if !ok {
		return errors.New("outbox record not found")
	}
	value := publishedAt.UTC()
	row.PublishedAt = &value
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
