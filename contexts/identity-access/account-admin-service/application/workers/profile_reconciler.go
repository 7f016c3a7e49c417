package workers

import (
	"context"
	"log/slog"
	"time"

	application "dealerdesk/contexts/identity-access/account-admin-service/application"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
)

// ProfileReconciler replays profile patches that were lost to partial
// dual-writes. Each pending sync failure carries the exact patch that failed;
// replaying it against the profile store restores the mirror without touching
// the identity provider, which already holds the authoritative state.
type ProfileReconciler struct {
	SyncFailures ports.SyncFailureStore
	Profiles     ports.ProfileStore
	Clock        ports.Clock
	BatchSize    int
	Logger       *slog.Logger
}

// RunOnce drains up to BatchSize pending failures. A replay that fails again
// stays pending for the next pass; the row is only resolved after the profile
// write lands. Failures recorded before a later successful write are stale:
// replaying them would overwrite newer state, so they are resolved without a
// write.
func (r ProfileReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.SyncFailures.ListPendingSyncFailures(ctx, limit)
	if err != nil {
		logger.Error("sync failure list failed",
			"event", "account_admin_reconcile_list_failed",
			"module", "identity-access/account-admin-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := r.now()
	for _, failure := range pending {
		profile, found, err := r.Profiles.GetProfile(ctx, failure.TargetUID)
		if err != nil {
			logger.Warn("sync failure profile read failed",
				"event", "account_admin_reconcile_read_failed",
				"module", "identity-access/account-admin-service",
				"layer", "worker",
				"failure_id", failure.FailureID,
				"target_uid", failure.TargetUID,
				"error", err.Error(),
			)
			continue
		}
		if found && profile.UpdatedAt.After(failure.OccurredAt) {
			// A later mutation already wrote this document; the queued
			// patch would roll that state back.
			if err := r.SyncFailures.MarkSyncFailureResolved(ctx, failure.FailureID, now); err != nil {
				return err
			}
			logger.Info("stale sync failure discarded",
				"event", "account_admin_reconcile_stale",
				"module", "identity-access/account-admin-service",
				"layer", "worker",
				"failure_id", failure.FailureID,
				"target_uid", failure.TargetUID,
				"action", failure.Action,
			)
			continue
		}
		if _, err := r.Profiles.UpsertProfile(ctx, failure.Patch, now); err != nil {
			logger.Warn("sync failure replay failed",
				"event", "account_admin_reconcile_replay_failed",
				"module", "identity-access/account-admin-service",
				"layer", "worker",
				"failure_id", failure.FailureID,
				"target_uid", failure.TargetUID,
				"error", err.Error(),
			)
			continue
		}
		if err := r.SyncFailures.MarkSyncFailureResolved(ctx, failure.FailureID, now); err != nil {
			return err
		}
		logger.Info("sync failure reconciled",
			"event", "account_admin_reconcile_resolved",
			"module", "identity-access/account-admin-service",
			"layer", "worker",
			"failure_id", failure.FailureID,
			"target_uid", failure.TargetUID,
			"action", failure.Action,
		)
	}
	return nil
}

func (r ProfileReconciler) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
