package application

import (
	"context"
	"log/slog"
	"time"

	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
)

// AuditLogger appends one entry per privileged-operation attempt. Audit
// persistence is observability, not a correctness gate: a failed append is
// logged to the operational channel and the mutation outcome stands.
type AuditLogger struct {
	Sink        ports.AuditSink
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Record fills entry identity/timestamp and appends it, swallowing failures.
func (l AuditLogger) Record(ctx context.Context, entry entities.AuditEntry) {
	logger := ResolveLogger(l.Logger)

	if entry.EntryID == "" && l.IDGenerator != nil {
		id, err := l.IDGenerator.NewID(ctx)
		if err != nil {
			logger.Warn("audit entry id generation failed",
				"event", "account_admin_audit_id_failed",
				"module", "identity-access/account-admin-service",
				"layer", "application",
				"action", string(entry.Action),
				"target_uid", entry.TargetUID,
				"error", err.Error(),
			)
			return
		}
		entry.EntryID = id
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = l.now()
	}

	if err := l.Sink.AppendAudit(ctx, entry); err != nil {
		logger.Warn("audit append failed",
			"event", "account_admin_audit_append_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"action", string(entry.Action),
			"performed_by", entry.PerformedBy,
			"target_uid", entry.TargetUID,
			"success", entry.Success,
			"error", err.Error(),
		)
	}
}

func (l AuditLogger) now() time.Time {
	if l.Clock != nil {
		return l.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
