package eventsadapter

import (
	"context"
	"log/slog"

	"dealerdesk/internal/shared/events"
)

// Bus is the publish capability provided by the platform messaging layer.
type Bus interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// Publisher emits account-changed envelopes onto the platform bus.
type Publisher struct {
	bus    Bus
	topic  string
	logger *slog.Logger
}

func NewPublisher(bus Bus, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if topic == "" {
		topic = "identity.account_changed"
	}
	return &Publisher{
		bus:    bus,
		topic:  topic,
		logger: logger,
	}
}

func (p Publisher) PublishAccountChanged(ctx context.Context, event events.Envelope) error {
	if err := p.bus.Publish(ctx, p.topic, event); err != nil {
		return err
	}
	p.logger.Info("account changed event published",
		"event", "account_admin_event_published",
		"module", "identity-access/account-admin-service",
		"layer", "adapter",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"entity_id", event.EntityID,
	)
	return nil
}
