package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "dealerdesk/contexts/identity-access/account-admin-service/application"
	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	domainerrors "dealerdesk/contexts/identity-access/account-admin-service/domain/errors"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
)

// ListAuditEntriesQuery asks for the audit trail of one target account,
// newest first. Read-only; requires the same manager privilege as mutations.
type ListAuditEntriesQuery struct {
	CallerUID string
	TargetUID string
	Limit     int
}

type ListAuditEntriesUseCase struct {
	Audit     ports.AuditSink
	Validator application.AccessValidator
	Logger    *slog.Logger
}

func (u ListAuditEntriesUseCase) Execute(ctx context.Context, query ListAuditEntriesQuery) ([]entities.AuditEntry, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(query.CallerUID) == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	if strings.TrimSpace(query.TargetUID) == "" {
		return nil, domainerrors.ErrInvalidTargetID
	}

	authorized, _, err := u.Validator.Authorize(ctx, query.CallerUID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrPermissionDenied, err)
	}
	if !authorized {
		return nil, domainerrors.ErrPermissionDenied
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	entries, err := u.Audit.ListAuditEntries(ctx, query.TargetUID, limit)
	if err != nil {
		logger.Error("audit listing failed",
			"event", "account_admin_audit_list_failed",
			"module", "identity-access/account-admin-service",
			"layer", "application",
			"target_uid", query.TargetUID,
			"error", err.Error(),
		)
		return nil, err
	}
	return entries, nil
}
