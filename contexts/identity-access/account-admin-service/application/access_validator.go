package application

import (
	"context"
	"fmt"
	"log/slog"

	"dealerdesk/contexts/identity-access/account-admin-service/ports"
)

// AccessValidator decides whether a caller may perform privileged account
// mutations. The identity-provider claim is checked first; the profile
// document is a fallback for accounts whose claim set has drifted behind the
// document (claims are re-minted on sign-in, so a freshly promoted manager
// can hold a stale token while the document already says manager).
type AccessValidator struct {
	Identity ports.IdentityStore
	Profiles ports.ProfileStore
	Logger   *slog.Logger
}

// Authorize returns whether callerUID holds the manager privilege, plus the
// caller's email for audit attribution. Any identity-provider read failure
// is treated as not-authorized with a wrapped error: this path fails closed.
func (v AccessValidator) Authorize(ctx context.Context, callerUID string) (bool, string, error) {
	logger := ResolveLogger(v.Logger)

	caller, err := v.Identity.GetUser(ctx, callerUID)
	if err != nil {
		logger.Error("caller identity read failed",
			"event", "account_admin_authorize_identity_read_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"caller_uid", callerUID,
			"error", err.Error(),
		)
		return false, "", fmt.Errorf("read caller identity: %w", err)
	}
	if caller.IsManagerClaim() {
		return true, caller.Email, nil
	}

	profile, found, err := v.Profiles.GetProfile(ctx, callerUID)
	if err != nil {
		logger.Error("caller profile read failed",
			"event", "account_admin_authorize_profile_read_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"caller_uid", callerUID,
			"error", err.Error(),
		)
		return false, caller.Email, fmt.Errorf("read caller profile: %w", err)
	}
	if found && profile.IsManager {
		logger.Info("caller authorized via profile fallback",
			"event", "account_admin_authorize_profile_fallback",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"caller_uid", callerUID,
		)
		return true, caller.Email, nil
	}
	return false, caller.Email, nil
}
