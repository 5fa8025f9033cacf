package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "trueque/contexts/exchange/negotiation-service/application"
	"trueque/contexts/exchange/negotiation-service/ports"
)

// NotificationConsumer hands negotiation events to the parties involved.
// Delivery is best-effort: a failed handoff is logged and dropped, never
// retried against the originating transition.
type NotificationConsumer struct {
	Subscriber    ports.EventSubscriber
	Topics        []string
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c NotificationConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = "negotiation-notifications-cg"
	}
	for _, topic := range c.Topics {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.deliver); err != nil {
			return err
		}
	}
	return nil
}

func (c NotificationConsumer) deliver(_ context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var data map[string]any
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &data); err != nil {
			logger.Warn("notification payload decode failed",
				"event", "notification_decode_failed",
				"module", "exchange/negotiation-service",
				"layer", "worker",
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return nil
		}
	}

	recipient, _ := data["bidder_id"].(string)
	if recipient == "" {
		recipient, _ = data["owner_id"].(string)
	}

	logger.Info("notification delivered",
		"event", "notification_delivered",
		"module", "exchange/negotiation-service",
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"publication_id", event.PartitionKey,
		"recipient_id", recipient,
	)
	return nil
}
