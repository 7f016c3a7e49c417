package entities

import "time"

// AuditAction identifies which privileged operation an audit entry records.
type AuditAction string

const (
	ActionSetManagerRole     AuditAction = "set_manager_role"
	ActionSetAccountDisabled AuditAction = "set_account_disabled"
)

// AccountSnapshot captures the privileged fields before or after a mutation.
// Pointers distinguish "not applicable to this action" from false.
type AccountSnapshot struct {
	IsManager *bool `json:"is_manager,omitempty"`
	Disabled  *bool `json:"disabled,omitempty"`
}

// AuditEntry is one immutable record of a privileged-operation attempt.
// Entries are append-only; nothing in this module updates or deletes them.
type AuditEntry struct {
	EntryID          string
	Action           AuditAction
	PerformedBy      string
	PerformedByEmail string
	TargetUID        string
	TargetEmail      string
	Previous         AccountSnapshot
	Next             AccountSnapshot
	Success          bool
	ErrorMessage     string
	RecordedAt       time.Time
}

// BoolPtr returns a pointer to v, for snapshot construction.
func BoolPtr(v bool) *bool {
	return &v
}
