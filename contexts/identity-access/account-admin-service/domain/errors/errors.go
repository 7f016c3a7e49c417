package errors

import "errors"

// Closed error taxonomy for the account-admin operations. Every error
// returned by the use cases wraps exactly one of these sentinels so the HTTP
// edge can map outcomes without inspecting message text.
var (
	ErrUnauthenticated  = errors.New("caller identity is required")
	ErrInvalidTargetID  = errors.New("target user id is required")
	ErrPermissionDenied = errors.New("caller is not a manager")
	ErrSelfRoleChange   = errors.New("cannot change your own manager status")
	ErrSelfDisable      = errors.New("cannot disable your own account")
	ErrLastManager      = errors.New("cannot demote the last manager")
	ErrUserNotFound     = errors.New("user not found")

	// ErrProfileSyncFailed reports the partial dual-write outcome: the
	// identity-provider write landed but the profile-document write did not.
	// Surfaced to callers as an internal error and recorded for
	// reconciliation; never conflated with ordinary internal failures.
	ErrProfileSyncFailed = errors.New("profile sync failed after identity update")
)
