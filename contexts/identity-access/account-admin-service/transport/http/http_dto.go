package httptransport

import "time"

// SetManagerRoleRequest is the request body for the manager-role toggle.
type SetManagerRoleRequest struct {
	IsManager bool `json:"is_manager"`
}

type SetManagerRoleResponse struct {
	Success   bool   `json:"success"`
	UID       string `json:"uid"`
	IsManager bool   `json:"is_manager"`
}

// SetAccountDisabledRequest is the request body for the account-status toggle.
type SetAccountDisabledRequest struct {
	Disabled bool `json:"disabled"`
}

type SetAccountDisabledResponse struct {
	Success  bool   `json:"success"`
	UID      string `json:"uid"`
	Disabled bool   `json:"disabled"`
}

// SnapshotDTO mirrors the structured before/after values of an audit entry.
type SnapshotDTO struct {
	IsManager *bool `json:"is_manager,omitempty"`
	Disabled  *bool `json:"disabled,omitempty"`
}

type AuditEntryDTO struct {
	EntryID          string      `json:"entry_id"`
	Action           string      `json:"action"`
	PerformedBy      string      `json:"performed_by"`
	PerformedByEmail string      `json:"performed_by_email,omitempty"`
	TargetUID        string      `json:"target_uid"`
	TargetEmail      string      `json:"target_email,omitempty"`
	Previous         SnapshotDTO `json:"previous"`
	Next             SnapshotDTO `json:"next"`
	Success          bool        `json:"success"`
	ErrorMessage     string      `json:"error_message,omitempty"`
	RecordedAt       time.Time   `json:"recorded_at"`
}

type ListAuditEntriesResponse struct {
	TargetUID string          `json:"target_uid"`
	Entries   []AuditEntryDTO `json:"entries"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
