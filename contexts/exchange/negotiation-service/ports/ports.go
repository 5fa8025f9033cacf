package ports

import (
	"context"
	"time"

	"trueque/contexts/exchange/negotiation-service/domain/entities"
	eventsv1 "trueque/internal/shared/events"
	"trueque/internal/shared/outbox"
)

type EventEnvelope = eventsv1.Envelope

type PublicationFilter struct {
	OwnerID string
	State   entities.PublicationState
}

type OfferFilter struct {
	PublicationID string
	BidderID      string
	State         entities.OfferState
}

// NegotiationView is the working set handed to an update callback: the
// publication, locked exclusively, plus every offer attached to it ordered
// by creation time.
type NegotiationView struct {
	Publication entities.Publication
	Offers      []entities.Offer
}

// NegotiationChanges is what the callback wants persisted. Offers are
// upserted by OfferID; Events are appended to the outbox inside the same
// atomic unit as the entity writes.
type NegotiationChanges struct {
	Publication *entities.Publication
	Offers      []entities.Offer
	Events      []EventEnvelope
}

type NegotiationUpdateFunc func(view NegotiationView) (NegotiationChanges, error)

type Repository interface {
	// CreatePublication persists a new publication and its announcement
	// event atomically.
	CreatePublication(ctx context.Context, publication entities.Publication, event EventEnvelope) error
	GetPublication(ctx context.Context, publicationID string) (entities.Publication, error)
	ListPublications(ctx context.Context, filter PublicationFilter) ([]entities.Publication, error)
	GetOffer(ctx context.Context, publicationID string, offerID string) (entities.Offer, error)
	ListOffers(ctx context.Context, filter OfferFilter) ([]entities.Offer, error)

	// UpdateNegotiation runs fn while holding an exclusive lock on the
	// publication, then persists the returned changes as one atomic unit.
	// Locks are per publication: operations on different publications never
	// block each other. Returns ErrNegotiationBusy when the lock cannot be
	// acquired before ctx expires, with nothing written.
	UpdateNegotiation(ctx context.Context, publicationID string, fn NegotiationUpdateFunc) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
