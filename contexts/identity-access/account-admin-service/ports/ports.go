package ports

import (
	"context"
	"time"

	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	"dealerdesk/internal/shared/events"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for audit/outbox/sync-failure rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// IdentityStore is the identity-provider boundary. The provider owns the
// authoritative manager claim and account disabled flag; claim writes are
// merges into the existing claim set, never replacements, because the session
// system sets unrelated claims on the same accounts.
type IdentityStore interface {
	// GetUser returns domainerrors.ErrUserNotFound when no such account exists.
	GetUser(ctx context.Context, uid string) (entities.IdentityUser, error)
	MergeClaims(ctx context.Context, uid string, claims map[string]any) error
	SetDisabled(ctx context.Context, uid string, disabled bool) error
}

// ProfilePatch is a merge-style write against one profile document. Nil
// pointer fields are left untouched; ClearDisabled removes the disabled
// bookkeeping pair on re-enable. Upserts create the document when absent.
type ProfilePatch struct {
	UID           string     `json:"uid"`
	Email         string     `json:"email,omitempty"`
	DisplayName   string     `json:"display_name,omitempty"`
	IsManager     *bool      `json:"is_manager,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	DisabledAt    *time.Time `json:"disabled_at,omitempty"`
	DisabledBy    *string    `json:"disabled_by,omitempty"`
	ClearDisabled bool       `json:"clear_disabled,omitempty"`
}

// ProfileStore is the document-store boundary for account profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (entities.UserProfile, bool, error)
	UpsertProfile(ctx context.Context, patch ProfilePatch, now time.Time) (entities.UserProfile, error)
	// CountManagers counts documents with is_manager true, regardless of
	// active status. See DESIGN.md for why disabled managers still count.
	CountManagers(ctx context.Context) (int, error)
}

// AuditSink is the append-only boundary for audit entries. No read path is
// required by the mutation pipeline; ListAuditEntries serves the operator
// listing endpoint only.
type AuditSink interface {
	AppendAudit(ctx context.Context, entry entities.AuditEntry) error
	ListAuditEntries(ctx context.Context, targetUID string, limit int) ([]entities.AuditEntry, error)
}

// SyncFailure is one pending profile write that must be replayed because the
// identity-provider write succeeded and the document write did not.
type SyncFailure struct {
	FailureID  string
	Action     string
	TargetUID  string
	Patch      ProfilePatch
	Reason     string
	OccurredAt time.Time
	ResolvedAt *time.Time
}

// SyncFailureStore records partial dual-writes for out-of-band reconciliation.
type SyncFailureStore interface {
	RecordSyncFailure(ctx context.Context, failure SyncFailure) error
	ListPendingSyncFailures(ctx context.Context, limit int) ([]SyncFailure, error)
	MarkSyncFailureResolved(ctx context.Context, failureID string, at time.Time) error
}

// OutboxMessage represents a pending account-changed event awaiting relay.
type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxRepository supports best-effort event emission: use cases append,
// the relay worker polls and acknowledges.
type OutboxRepository interface {
	AppendOutbox(ctx context.Context, message OutboxMessage) error
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// AccountEventPublisher emits account-changed envelopes to the event bus.
type AccountEventPublisher interface {
	PublishAccountChanged(ctx context.Context, event events.Envelope) error
}
