package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "dealerdesk/contexts/identity-access/account-admin-service/application"
	"dealerdesk/contexts/identity-access/account-admin-service/ports"
	"dealerdesk/internal/shared/events"
)

// OutboxRelay publishes pending account-changed envelopes to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.AccountEventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("account outbox list failed",
			"event", "account_admin_outbox_list_failed",
			"module", "identity-access/account-admin-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event events.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			return err
		}
		if err := r.Publisher.PublishAccountChanged(ctx, event); err != nil {
			logger.Error("account outbox publish failed",
				"event", "account_admin_outbox_publish_failed",
				"module", "identity-access/account-admin-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return err
		}
	}
	return nil
}
