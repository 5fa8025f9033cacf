package commands

import (
	"encoding/json"
	"time"

	"trueque/contexts/exchange/negotiation-service/ports"
)

const (
	EventTypePublicationListed    = "negotiation.publication_listed"
	EventTypeOfferSubmitted       = "negotiation.offer_submitted"
	EventTypeOfferAccepted        = "negotiation.offer_accepted"
	EventTypeOfferAutoRejected    = "negotiation.offer_auto_rejected"
	EventTypeOfferRejected        = "negotiation.offer_rejected"
	EventTypeNegotiationClosed    = "negotiation.closed"
	EventTypeNegotiationCancelled = "negotiation.cancelled"
	EventTypePublicationPaused    = "negotiation.publication_paused"
	EventTypePublicationResumed   = "negotiation.publication_resumed"
)

// NotificationTopics lists every event type the notification consumer
// subscribes to.
var NotificationTopics = []string{
	EventTypePublicationListed,
	EventTypeOfferSubmitted,
	EventTypeOfferAccepted,
	EventTypeOfferAutoRejected,
	EventTypeOfferRejected,
	EventTypeNegotiationClosed,
	EventTypeNegotiationCancelled,
	EventTypePublicationPaused,
	EventTypePublicationResumed,
}

func newNegotiationEnvelope(
	eventID string,
	eventType string,
	publicationID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "negotiation-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "publication_id",
		PartitionKey:     publicationID,
		Data:             payload,
	}, nil
}
