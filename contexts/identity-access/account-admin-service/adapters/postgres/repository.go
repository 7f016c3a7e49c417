package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements the profile, audit, sync-failure, and outbox ports
// over Postgres. The identity provider is not behind this adapter; it stays
// an external service reached through adapters/identity.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

type profileModel struct {
	UID         string     `gorm:"column:uid;primaryKey"`
	Email       string     `gorm:"column:email"`
	DisplayName string     `gorm:"column:display_name"`
	IsManager   bool       `gorm:"column:is_manager"`
	IsActive    bool       `gorm:"column:is_active"`
	DisabledAt  *time.Time `gorm:"column:disabled_at"`
	DisabledBy  string     `gorm:"column:disabled_by"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (profileModel) TableName() string { return "user_profiles" }

func (m profileModel) toEntity() entities.UserProfile {
	profile := entities.UserProfile{
		UID:         m.UID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		IsManager:   m.IsManager,
		IsActive:    m.IsActive,
		DisabledBy:  m.DisabledBy,
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	if m.DisabledAt != nil {
		at := m.DisabledAt.UTC()
		profile.DisabledAt = &at
	}
	return profile
}

type auditModel struct {
	EntryID          string    `gorm:"column:entry_id;primaryKey"`
	Action           string    `gorm:"column:action"`
	PerformedBy      string    `gorm:"column:performed_by"`
	PerformedByEmail string    `gorm:"column:performed_by_email"`
	TargetUID        string    `gorm:"column:target_uid;index"`
	TargetEmail      string    `gorm:"column:target_email"`
	PreviousValue    []byte    `gorm:"column:previous_value"`
	NewValue         []byte    `gorm:"column:new_value"`
	Success          bool      `gorm:"column:success"`
	ErrorMessage     string    `gorm:"column:error_message"`
	RecordedAt       time.Time `gorm:"column:recorded_at"`
}

func (auditModel) TableName() string { return "account_audit_log" }

type syncFailureModel struct {
	FailureID  string     `gorm:"column:failure_id;primaryKey"`
	Action     string     `gorm:"column:action"`
	TargetUID  string     `gorm:"column:target_uid"`
	Patch      []byte     `gorm:"column:patch"`
	Reason     string     `gorm:"column:reason"`
	OccurredAt time.Time  `gorm:"column:occurred_at"`
	ResolvedAt *time.Time `gorm:"column:resolved_at"`
}

func (syncFailureModel) TableName() string { return "profile_sync_failures" }

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "account_event_outbox" }

func (r *Repository) GetProfile(ctx context.Context, uid string) (entities.UserProfile, bool, error) {
	var row profileModel
	err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.UserProfile{}, false, nil
		}
		return entities.UserProfile{}, false, err
	}
	return row.toEntity(), true, nil
}

// UpsertProfile performs a read-modify-merge inside one transaction so
// concurrent writers cannot clobber fields they did not set.
func (r *Repository) UpsertProfile(ctx context.Context, patch ports.ProfilePatch, now time.Time) (entities.UserProfile, error) {
	var result entities.UserProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row profileModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uid = ?", patch.UID).
			First(&row).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = profileModel{UID: patch.UID, IsActive: true}
		} else if err != nil {
			return err
		}

		if patch.Email != "" {
			row.Email = patch.Email
		}
		if patch.DisplayName != "" {
			row.DisplayName = patch.DisplayName
		}
		if patch.IsManager != nil {
			row.IsManager = *patch.IsManager
		}
		if patch.IsActive != nil {
			row.IsActive = *patch.IsActive
		}
		if patch.DisabledAt != nil {
			at := patch.DisabledAt.UTC()
			row.DisabledAt = &at
		}
		if patch.DisabledBy != nil {
			row.DisabledBy = *patch.DisabledBy
		}
		if patch.ClearDisabled {
			row.DisabledAt = nil
			row.DisabledBy = ""
		}
		row.UpdatedAt = now.UTC()

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			UpdateAll: true,
		}).Create(&row).Error; err != nil {
			return err
		}
		result = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.UserProfile{}, err
	}
	return result, nil
}

func (r *Repository) CountManagers(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&profileModel{}).
		Where("is_manager = ?", true).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) AppendAudit(ctx context.Context, entry entities.AuditEntry) error {
	previous, err := json.Marshal(entry.Previous)
	if err != nil {
		return err
	}
	next, err := json.Marshal(entry.Next)
	if err != nil {
		return err
	}

	row := auditModel{
		EntryID:          entry.EntryID,
		Action:           string(entry.Action),
		PerformedBy:      entry.PerformedBy,
		PerformedByEmail: entry.PerformedByEmail,
		TargetUID:        entry.TargetUID,
		TargetEmail:      entry.TargetEmail,
		PreviousValue:    previous,
		NewValue:         next,
		Success:          entry.Success,
		ErrorMessage:     entry.ErrorMessage,
		RecordedAt:       entry.RecordedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// A retried append with the same entry id is already durable.
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func (r *Repository) ListAuditEntries(ctx context.Context, targetUID string, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditModel
	err := r.db.WithContext(ctx).
		Where("target_uid = ?", targetUID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry := entities.AuditEntry{
			EntryID:          row.EntryID,
			Action:           entities.AuditAction(row.Action),
			PerformedBy:      row.PerformedBy,
			PerformedByEmail: row.PerformedByEmail,
			TargetUID:        row.TargetUID,
			TargetEmail:      row.TargetEmail,
			Success:          row.Success,
			ErrorMessage:     row.ErrorMessage,
			RecordedAt:       row.RecordedAt.UTC(),
		}
		if err := json.Unmarshal(row.PreviousValue, &entry.Previous); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(row.NewValue, &entry.Next); err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	return items, nil
}

func (r *Repository) RecordSyncFailure(ctx context.Context, failure ports.SyncFailure) error {
	patch, err := json.Marshal(failure.Patch)
	if err != nil {
		return err
	}
	row := syncFailureModel{
		FailureID:  failure.FailureID,
		Action:     failure.Action,
		TargetUID:  failure.TargetUID,
		Patch:      patch,
		Reason:     failure.Reason,
		OccurredAt: failure.OccurredAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListPendingSyncFailures(ctx context.Context, limit int) ([]ports.SyncFailure, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []syncFailureModel
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("occurred_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]ports.SyncFailure, 0, len(rows))
	for _, row := range rows {
		failure := ports.SyncFailure{
			FailureID:  row.FailureID,
			Action:     row.Action,
			TargetUID:  row.TargetUID,
			Reason:     row.Reason,
			OccurredAt: row.OccurredAt.UTC(),
		}
		if err := json.Unmarshal(row.Patch, &failure.Patch); err != nil {
			return nil, err
		}
		items = append(items, failure)
	}
	return items, nil
}

func (r *Repository) MarkSyncFailureResolved(ctx context.Context, failureID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&syncFailureModel{}).
		Where("failure_id = ?", failureID).
		Update("resolved_at", at.UTC()).
		Error
}

func (r *Repository) AppendOutbox(ctx context.Context, message ports.OutboxMessage) error {
	row := outboxModel{
		OutboxID:  message.OutboxID,
		EventType: message.EventType,
		Payload:   message.Payload,
		CreatedAt: message.CreatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Update("published_at", publishedAt.UTC()).
		Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
