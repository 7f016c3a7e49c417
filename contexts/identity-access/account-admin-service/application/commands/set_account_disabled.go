package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "dealerdesk/contexts/identity-access/account-admin-service/application"
	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	domainerrors "dealerdesk/contexts/identity-access/account-admin-service/domain/errors"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
)

// SetAccountDisabledCommand contains transport-agnostic input for an
// enable/disable toggle. Accounts are disabled, never deleted.
type SetAccountDisabledCommand struct {
	CallerUID string
	TargetUID string
	Disabled  bool
}

// SetAccountDisabledResult is returned on success.
type SetAccountDisabledResult struct {
	UID      string `json:"uid"`
	Disabled bool   `json:"disabled"`
}

// SetAccountDisabledUseCase orchestrates the account enable/disable toggle
// with the same authorization, dual-write, and audit discipline as the role
// toggle. There is no last-active-account guard on this path.
type SetAccountDisabledUseCase struct {
	Identity     ports.IdentityStore
	Profiles     ports.ProfileStore
	SyncFailures ports.SyncFailureStore
	Outbox       ports.OutboxRepository
	Validator    application.AccessValidator
	Audit        application.AuditLogger
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

// Execute runs the precondition chain, writes the disabled flag to the
// identity provider, then mirrors active status and disabled bookkeeping
// into the profile document.
func (u SetAccountDisabledUseCase) Execute(ctx context.Context, cmd SetAccountDisabledCommand) (SetAccountDisabledResult, error) {
	logger := application.ResolveLogger(u.Logger)
	logger.Info("set account disabled started",
		"event", "account_admin_set_status_started",
		"module", "identity-access/account-admin-service",
		"layer", "application",
		"caller_uid", cmd.CallerUID,
		"target_uid", cmd.TargetUID,
		"disabled", cmd.Disabled,
	)

	if strings.TrimSpace(cmd.CallerUID) == "" {
		return SetAccountDisabledResult{}, domainerrors.ErrUnauthenticated
	}
	if strings.TrimSpace(cmd.TargetUID) == "" {
		return SetAccountDisabledResult{}, domainerrors.ErrInvalidTargetID
	}

	authorized, callerEmail, err := u.Validator.Authorize(ctx, cmd.CallerUID)
	if err != nil {
		denied := fmt.Errorf("%w: %v", domainerrors.ErrPermissionDenied, err)
		u.recordStatus(ctx, cmd, callerEmail, "", entities.AccountSnapshot{}, denied)
		return SetAccountDisabledResult{}, denied
	}
	if !authorized {
		u.recordStatus(ctx, cmd, callerEmail, "", entities.AccountSnapshot{}, domainerrors.ErrPermissionDenied)
		return SetAccountDisabledResult{}, domainerrors.ErrPermissionDenied
	}

	if cmd.CallerUID == cmd.TargetUID {
		u.recordStatus(ctx, cmd, callerEmail, "", entities.AccountSnapshot{}, domainerrors.ErrSelfDisable)
		return SetAccountDisabledResult{}, domainerrors.ErrSelfDisable
	}

	target, err := u.Identity.GetUser(ctx, cmd.TargetUID)
	if err != nil {
		u.recordStatus(ctx, cmd, callerEmail, "", entities.AccountSnapshot{}, err)
		return SetAccountDisabledResult{}, err
	}
	previous := entities.AccountSnapshot{Disabled: entities.BoolPtr(target.Disabled)}

	now := u.now()

	if err := u.Identity.SetDisabled(ctx, cmd.TargetUID, cmd.Disabled); err != nil {
		logger.Error("account disabled flag write failed",
			"event", "account_admin_set_status_identity_write_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"target_uid", cmd.TargetUID,
			"error", err.Error(),
		)
		u.recordStatus(ctx, cmd, callerEmail, target.Email, previous, err)
		return SetAccountDisabledResult{}, fmt.Errorf("set disabled flag: %w", err)
	}

	patch := ports.ProfilePatch{
		UID:         cmd.TargetUID,
		Email:       target.Email,
		DisplayName: target.DisplayName,
		IsActive:    entities.BoolPtr(!cmd.Disabled),
	}
	if cmd.Disabled {
		disabledAt := now
		disabledBy := cmd.CallerUID
		patch.DisabledAt = &disabledAt
		patch.DisabledBy = &disabledBy
	} else {
		patch.ClearDisabled = true
	}
	if _, err := u.Profiles.UpsertProfile(ctx, patch, now); err != nil {
		syncErr := fmt.Errorf("%w: %v", domainerrors.ErrProfileSyncFailed, err)
		u.reportSyncFailure(ctx, string(entities.ActionSetAccountDisabled), cmd.TargetUID, patch, err, now)
		u.recordStatus(ctx, cmd, callerEmail, target.Email, previous, syncErr)
		return SetAccountDisabledResult{}, syncErr
	}

	u.appendAccountChanged(ctx, cmd.TargetUID, "account_status", map[string]any{
		"uid":        cmd.TargetUID,
		"disabled":   cmd.Disabled,
		"changed_by": cmd.CallerUID,
	}, now)

	u.Audit.Record(ctx, entities.AuditEntry{
		Action:           entities.ActionSetAccountDisabled,
		PerformedBy:      cmd.CallerUID,
		PerformedByEmail: callerEmail,
		TargetUID:        cmd.TargetUID,
		TargetEmail:      target.Email,
		Previous:         previous,
		Next:             entities.AccountSnapshot{Disabled: entities.BoolPtr(cmd.Disabled)},
		Success:          true,
	})

	logger.Info("set account disabled completed",
		"event", "account_admin_set_status_completed",
		"module", "identity-access/account-admin-service",
		"layer", "application",
		"caller_uid", cmd.CallerUID,
		"target_uid", cmd.TargetUID,
		"disabled", cmd.Disabled,
	)
	return SetAccountDisabledResult{UID: cmd.TargetUID, Disabled: cmd.Disabled}, nil
}

func (u SetAccountDisabledUseCase) recordStatus(
	ctx context.Context,
	cmd SetAccountDisabledCommand,
	callerEmail string,
	targetEmail string,
	previous entities.AccountSnapshot,
	cause error,
) {
	u.Audit.Record(ctx, entities.AuditEntry{
		Action:           entities.ActionSetAccountDisabled,
		PerformedBy:      cmd.CallerUID,
		PerformedByEmail: callerEmail,
		TargetUID:        cmd.TargetUID,
		TargetEmail:      targetEmail,
		Previous:         previous,
		Next:             entities.AccountSnapshot{Disabled: entities.BoolPtr(cmd.Disabled)},
		Success:          false,
		ErrorMessage:     cause.Error(),
	})
}

func (u SetAccountDisabledUseCase) reportSyncFailure(
	ctx context.Context,
	action string,
	targetUID string,
	patch ports.ProfilePatch,
	cause error,
	now time.Time,
) {
	reportSyncFailure(ctx, syncFailureReport{
		SyncFailures: u.SyncFailures,
		IDGenerator:  u.IDGenerator,
		Logger:       u.Logger,
		Action:       action,
		TargetUID:    targetUID,
		Patch:        patch,
		Cause:        cause,
		Now:          now,
	})
}

func (u SetAccountDisabledUseCase) appendAccountChanged(
	ctx context.Context,
	targetUID string,
	field string,
	payload map[string]any,
	now time.Time,
) {
	appendAccountChanged(ctx, accountChangedAppend{
		Outbox:      u.Outbox,
		IDGenerator: u.IDGenerator,
		Logger:      u.Logger,
		TargetUID:   targetUID,
		Field:       field,
		Payload:     payload,
		Now:         now,
	})
}

func (u SetAccountDisabledUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
