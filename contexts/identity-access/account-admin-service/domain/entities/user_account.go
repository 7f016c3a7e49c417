package entities

import "time"

// UserProfile is the queryable mirror of an account held in the document
// store. The identity provider remains the source of truth for the manager
// claim and the disabled flag; this document is a best-effort materialized
// view kept in sync by the account-admin use cases and the reconciler.
type UserProfile struct {
	UID         string
	Email       string
	DisplayName string
	IsManager   bool
	IsActive    bool
	DisabledAt  *time.Time
	DisabledBy  string
	UpdatedAt   time.Time
}

// IdentityUser is the identity-provider view of an account.
type IdentityUser struct {
	UID         string
	Email       string
	DisplayName string
	Disabled    bool
	Claims      map[string]any
}

// IsManagerClaim reports whether the manager claim is set on the account.
func (u IdentityUser) IsManagerClaim() bool {
	value, ok := u.Claims["isManager"].(bool)
	return ok && value
}
