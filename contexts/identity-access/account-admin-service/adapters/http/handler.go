package httpadapter

import (
	"context"
	"log/slog"

	application "dealerdesk/contexts/identity-access/account-admin-service/application"
	"dealerdesk/contexts/identity-access/account-admin-service/application/commands"
	"dealerdesk/contexts/identity-access/account-admin-service/application/queries"
	httptransport "dealerdesk/contexts/identity-access/account-admin-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	SetManagerRole     commands.SetManagerRoleUseCase
	SetAccountDisabled commands.SetAccountDisabledUseCase
	ListAuditEntries   queries.ListAuditEntriesUseCase
	Logger             *slog.Logger
}

// SetManagerRoleHandler toggles the target's manager privilege.
func (h Handler) SetManagerRoleHandler(
	ctx context.Context,
	callerUID string,
	targetUID string,
	request httptransport.SetManagerRoleRequest,
) (httptransport.SetManagerRoleResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http set manager role received",
		"event", "account_admin_http_set_role_received",
		"module", "identity-access/account-admin-service",
		"layer", "transport",
		"caller_uid", callerUID,
		"target_uid", targetUID,
		"is_manager", request.IsManager,
	)

	result, err := h.SetManagerRole.Execute(ctx, commands.SetManagerRoleCommand{
		CallerUID: callerUID,
		TargetUID: targetUID,
		IsManager: request.IsManager,
	})
	if err != nil {
		logger.Error("http set manager role failed",
			"event", "account_admin_http_set_role_failed",
			"module", "identity-access/account-admin-service",
			"layer", "transport",
			"caller_uid", callerUID,
			"target_uid", targetUID,
			"error", err.Error(),
		)
		return httptransport.SetManagerRoleResponse{}, err
	}
	return httptransport.SetManagerRoleResponse{
		Success:   true,
		UID:       result.UID,
		IsManager: result.IsManager,
	}, nil
}

// SetAccountDisabledHandler toggles the target's account status.
func (h Handler) SetAccountDisabledHandler(
	ctx context.Context,
	callerUID string,
	targetUID string,
	request httptransport.SetAccountDisabledRequest,
) (httptransport.SetAccountDisabledResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http set account disabled received",
		"event", "account_admin_http_set_status_received",
		"module", "identity-access/account-admin-service",
		"layer", "transport",
		"caller_uid", callerUID,
		"target_uid", targetUID,
		"disabled", request.Disabled,
	)

	result, err := h.SetAccountDisabled.Execute(ctx, commands.SetAccountDisabledCommand{
		CallerUID: callerUID,
		TargetUID: targetUID,
		Disabled:  request.Disabled,
	})
	if err != nil {
		logger.Error("http set account disabled failed",
			"event", "account_admin_http_set_status_failed",
			"module", "identity-access/account-admin-service",
			"layer", "transport",
			"caller_uid", callerUID,
			"target_uid", targetUID,
			"error", err.Error(),
		)
		return httptransport.SetAccountDisabledResponse{}, err
	}
	return httptransport.SetAccountDisabledResponse{
		Success:  true,
		UID:      result.UID,
		Disabled: result.Disabled,
	}, nil
}

// ListAuditEntriesHandler returns the target's audit trail, newest first.
func (h Handler) ListAuditEntriesHandler(
	ctx context.Context,
	callerUID string,
	targetUID string,
	limit int,
) (httptransport.ListAuditEntriesResponse, error) {
	entries, err := h.ListAuditEntries.Execute(ctx, queries.ListAuditEntriesQuery{
		CallerUID: callerUID,
		TargetUID: targetUID,
		Limit:     limit,
	})
	if err != nil {
		return httptransport.ListAuditEntriesResponse{}, err
	}

	items := make([]httptransport.AuditEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.AuditEntryDTO{
			EntryID:          entry.EntryID,
			Action:           string(entry.Action),
			PerformedBy:      entry.PerformedBy,
			PerformedByEmail: entry.PerformedByEmail,
			TargetUID:        entry.TargetUID,
			TargetEmail:      entry.TargetEmail,
			Previous:         httptransport.SnapshotDTO{IsManager: entry.Previous.IsManager, Disabled: entry.Previous.Disabled},
			Next:             httptransport.SnapshotDTO{IsManager: entry.Next.IsManager, Disabled: entry.Next.Disabled},
			Success:          entry.Success,
			ErrorMessage:     entry.ErrorMessage,
			RecordedAt:       entry.RecordedAt,
		})
	}
	return httptransport.ListAuditEntriesResponse{
		TargetUID: targetUID,
		Entries:   items,
	}, nil
}
