package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "dealerdesk/contexts/identity-access/account-admin-service/application"
	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	domainerrors "dealerdesk/contexts/identity-access/account-admin-service/domain/errors"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
	"dealerdesk/internal/shared/events"
)

// SetManagerRoleCommand contains transport-agnostic input for a role toggle.
type SetManagerRoleCommand struct {
	CallerUID string
	TargetUID string
	IsManager bool
}

// SetManagerRoleResult is returned on success.
type SetManagerRoleResult struct {
	UID       string `json:"uid"`
	IsManager bool   `json:"is_manager"`
}

// SetManagerRoleUseCase orchestrates the manager-privilege toggle: authorize
// the caller, enforce the self-modification and last-manager rules, write the
// identity-provider claim, mirror it into the profile document, and audit the
// attempt whatever the outcome.
type SetManagerRoleUseCase struct {
	Identity     ports.IdentityStore
	Profiles     ports.ProfileStore
	SyncFailures ports.SyncFailureStore
	Outbox       ports.OutboxRepository
	Validator    application.AccessValidator
	Guard        application.ManagerCountGuard
	Audit        application.AuditLogger
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

// Execute runs the precondition chain in spec order (first failing check
// wins), then the identity-before-profile dual write. Rejections that precede
// caller authorization (missing caller, missing target) are not audited; every
// later outcome produces exactly one audit entry.
func (u SetManagerRoleUseCase) Execute(ctx context.Context, cmd SetManagerRoleCommand) (SetManagerRoleResult, error) {
	logger := application.ResolveLogger(u.Logger)
	logger.Info("set manager role started",
		"event", "account_admin_set_role_started",
		"module", "identity-access/account-admin-service",
		"layer", "application",
		"caller_uid", cmd.CallerUID,
		"target_uid", cmd.TargetUID,
		"is_manager", cmd.IsManager,
	)

	if strings.TrimSpace(cmd.CallerUID) == "" {
		return SetManagerRoleResult{}, domainerrors.ErrUnauthenticated
	}
	if strings.TrimSpace(cmd.TargetUID) == "" {
		return SetManagerRoleResult{}, domainerrors.ErrInvalidTargetID
	}

	authorized, callerEmail, err := u.Validator.Authorize(ctx, cmd.CallerUID)
	if err != nil {
		// Fail closed: an unreadable caller identity is a denial.
		denied := fmt.Errorf("%w: %v", domainerrors.ErrPermissionDenied, err)
		u.recordRole(ctx, cmd, callerEmail, "", entities.AccountSnapshot{}, denied)
		return SetManagerRoleResult{}, denied
	}
	if !authorized {
		u.recordRole(ctx, cmd, callerEmail, "", entities.AccountSnapshot{}, domainerrors.ErrPermissionDenied)
		return SetManagerRoleResult{}, domainerrors.ErrPermissionDenied
	}

	if cmd.CallerUID == cmd.TargetUID {
		u.recordRole(ctx, cmd, callerEmail, "", entities.AccountSnapshot{}, domainerrors.ErrSelfRoleChange)
		return SetManagerRoleResult{}, domainerrors.ErrSelfRoleChange
	}

	target, err := u.Identity.GetUser(ctx, cmd.TargetUID)
	if err != nil {
		u.recordRole(ctx, cmd, callerEmail, "", entities.AccountSnapshot{}, err)
		return SetManagerRoleResult{}, err
	}
	previous := entities.AccountSnapshot{IsManager: entities.BoolPtr(target.IsManagerClaim())}

	if target.IsManagerClaim() && !cmd.IsManager {
		count, err := u.Guard.CountManagers(ctx)
		if err != nil {
			u.recordRole(ctx, cmd, callerEmail, target.Email, previous, err)
			return SetManagerRoleResult{}, fmt.Errorf("count managers: %w", err)
		}
		if count <= 1 {
			u.recordRole(ctx, cmd, callerEmail, target.Email, previous, domainerrors.ErrLastManager)
			return SetManagerRoleResult{}, domainerrors.ErrLastManager
		}
	}

	now := u.now()

	// Identity provider first: the claim is the authoritative signal. The
	// merge keeps unrelated claims set by the session system intact.
	if err := u.Identity.MergeClaims(ctx, cmd.TargetUID, map[string]any{"isManager": cmd.IsManager}); err != nil {
		logger.Error("manager claim write failed",
			"event", "account_admin_set_role_claim_write_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"target_uid", cmd.TargetUID,
			"error", err.Error(),
		)
		u.recordRole(ctx, cmd, callerEmail, target.Email, previous, err)
		return SetManagerRoleResult{}, fmt.Errorf("merge manager claim: %w", err)
	}

	patch := ports.ProfilePatch{
		UID:         cmd.TargetUID,
		Email:       target.Email,
		DisplayName: target.DisplayName,
		IsManager:   entities.BoolPtr(cmd.IsManager),
	}
	if _, err := u.Profiles.UpsertProfile(ctx, patch, now); err != nil {
		syncErr := fmt.Errorf("%w: %v", domainerrors.ErrProfileSyncFailed, err)
		u.reportSyncFailure(ctx, string(entities.ActionSetManagerRole), cmd.TargetUID, patch, err, now)
		u.recordRole(ctx, cmd, callerEmail, target.Email, previous, syncErr)
		return SetManagerRoleResult{}, syncErr
	}

	u.appendAccountChanged(ctx, cmd.TargetUID, "manager_role", map[string]any{
		"uid":        cmd.TargetUID,
		"is_manager": cmd.IsManager,
		"changed_by": cmd.CallerUID,
	}, now)

	u.Audit.Record(ctx, entities.AuditEntry{
		Action:           entities.ActionSetManagerRole,
		PerformedBy:      cmd.CallerUID,
		PerformedByEmail: callerEmail,
		TargetUID:        cmd.TargetUID,
		TargetEmail:      target.Email,
		Previous:         previous,
		Next:             entities.AccountSnapshot{IsManager: entities.BoolPtr(cmd.IsManager)},
		Success:          true,
	})

	logger.Info("set manager role completed",
		"event", "account_admin_set_role_completed",
		"module", "identity-access/account-admin-service",
		"layer", "application",
		"caller_uid", cmd.CallerUID,
		"target_uid", cmd.TargetUID,
		"is_manager", cmd.IsManager,
	)
	return SetManagerRoleResult{UID: cmd.TargetUID, IsManager: cmd.IsManager}, nil
}

func (u SetManagerRoleUseCase) recordRole(
	ctx context.Context,
	cmd SetManagerRoleCommand,
	callerEmail string,
	targetEmail string,
	previous entities.AccountSnapshot,
	cause error,
) {
	u.Audit.Record(ctx, entities.AuditEntry{
		Action:           entities.ActionSetManagerRole,
		PerformedBy:      cmd.CallerUID,
		PerformedByEmail: callerEmail,
		TargetUID:        cmd.TargetUID,
		TargetEmail:      targetEmail,
		Previous:         previous,
		Next:             entities.AccountSnapshot{IsManager: entities.BoolPtr(cmd.IsManager)},
		Success:          false,
		ErrorMessage:     cause.Error(),
	})
}

func (u SetManagerRoleUseCase) reportSyncFailure(
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

func (u SetManagerRoleUseCase) appendAccountChanged(
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

func (u SetManagerRoleUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// marshalPayload is shared by the outbox helpers.
func marshalPayload(envelope events.Envelope) ([]byte, error) {
	return json.Marshal(envelope)
}
