package commands

import (
	"context"
	"log/slog"
	"time"

	application "dealerdesk/contexts/identity-access/account-admin-service/application"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
	"dealerdesk/internal/shared/events"
)

const sourceService = "account-admin-service"

type syncFailureReport struct {
	SyncFailures ports.SyncFailureStore
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
	Action       string
	TargetUID    string
	Patch        ports.ProfilePatch
	Cause        error
	Now          time.Time
}

// reportSyncFailure logs the partial dual-write loudly and queues the missed
// profile patch for the reconciler. A failure to queue is itself logged at
// Error level; the condition is never silently swallowed.
func reportSyncFailure(ctx context.Context, report syncFailureReport) {
	logger := application.ResolveLogger(report.Logger)
	logger.Error("profile sync failed after identity update",
		"event", "account_admin_profile_sync_failed",
		"module", "identity-access/account-admin-service",
		"layer", "application",
		"action", report.Action,
		"target_uid", report.TargetUID,
		"error", report.Cause.Error(),
	)

	if report.SyncFailures == nil {
		return
	}
	failureID := ""
	if report.IDGenerator != nil {
		id, err := report.IDGenerator.NewID(ctx)
		if err != nil {
			logger.Error("sync failure id generation failed",
				"event", "account_admin_sync_failure_id_failed",
				"module", "identity-access/account-admin-service",
				"layer", "application",
				"target_uid", report.TargetUID,
				"error", err.Error(),
			)
			return
		}
		failureID = id
	}
	err := report.SyncFailures.RecordSyncFailure(ctx, ports.SyncFailure{
		FailureID:  failureID,
		Action:     report.Action,
		TargetUID:  report.TargetUID,
		Patch:      report.Patch,
		Reason:     report.Cause.Error(),
		OccurredAt: report.Now,
	})
	if err != nil {
		logger.Error("sync failure record failed",
			"event", "account_admin_sync_failure_record_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"action", report.Action,
			"target_uid", report.TargetUID,
			"error", err.Error(),
		)
	}
}

type accountChangedAppend struct {
	Outbox      ports.OutboxRepository
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
	TargetUID   string
	Field       string
	Payload     map[string]any
	Now         time.Time
}

// appendAccountChanged queues an account-changed envelope for the relay
// worker. Emission is best-effort and never gates the mutation result.
func appendAccountChanged(ctx context.Context, a accountChangedAppend) {
	logger := application.ResolveLogger(a.Logger)
	if a.Outbox == nil || a.IDGenerator == nil {
		return
	}

	eventID, err := a.IDGenerator.NewID(ctx)
	if err != nil {
		logger.Warn("account changed event id failed",
			"event", "account_admin_event_id_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"target_uid", a.TargetUID,
			"error", err.Error(),
		)
		return
	}
	outboxID, err := a.IDGenerator.NewID(ctx)
	if err != nil {
		logger.Warn("account changed outbox id failed",
			"event", "account_admin_outbox_id_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"target_uid", a.TargetUID,
			"error", err.Error(),
		)
		return
	}

	payload, err := marshalPayload(events.Envelope{
		EventID:        eventID,
		EventType:      "identity.account_changed",
		SourceService:  sourceService,
		OccurredAtUTC:  a.Now,
		EntityType:     "user_account",
		EntityID:       a.TargetUID,
		PayloadVersion: 1,
		Payload:        a.Payload,
	})
	if err != nil {
		logger.Warn("account changed envelope encode failed",
			"event", "account_admin_event_encode_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"target_uid", a.TargetUID,
			"error", err.Error(),
		)
		return
	}

	if err := a.Outbox.AppendOutbox(ctx, ports.OutboxMessage{
		OutboxID:  outboxID,
		EventType: "identity.account_changed",
		Payload:   payload,
		CreatedAt: a.Now,
	}); err != nil {
		logger.Warn("account changed outbox append failed",
			"event", "account_admin_outbox_append_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"target_uid", a.TargetUID,
			"field", a.Field,
			"error", err.Error(),
		)
	}
}
