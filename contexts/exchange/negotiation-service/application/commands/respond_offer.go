package commands

import (
	"context"
	"log/slog"
	"strings"

	application "trueque/contexts/exchange/negotiation-service/application"
	"trueque/contexts/exchange/negotiation-service/domain/entities"
	domainerrors "trueque/contexts/exchange/negotiation-service/domain/errors"
	"trueque/contexts/exchange/negotiation-service/domain/services"
	"trueque/contexts/exchange/negotiation-service/ports"
)

type AcceptOfferCommand struct {
	PublicationID string
	OfferID       string
	Actor         entities.Actor
}

type RejectOfferCommand struct {
	PublicationID string
	OfferID       string
	Actor         entities.Actor
}

// RespondOfferUseCase resolves pending offers. Accept wins the negotiation
// for one bidder and auto-rejects every other pending offer in the same
// atomic unit; Reject turns down a single offer and leaves the publication
// untouched.
type RespondOfferUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc RespondOfferUseCase) Accept(ctx context.Context, cmd AcceptOfferCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	publicationID := strings.TrimSpace(cmd.PublicationID)
	offerID := strings.TrimSpace(cmd.OfferID)

	var autoRejected int
	err := uc.Repository.UpdateNegotiation(ctx, publicationID, func(view ports.NegotiationView) (ports.NegotiationChanges, error) {
		if !services.CanModerate(cmd.Actor, view.Publication) {
			return ports.NegotiationChanges{}, domainerrors.ErrActorNotAllowed
		}

		target, found := findOffer(view.Offers, offerID)
		if !found {
			return ports.NegotiationChanges{}, domainerrors.ErrOfferNotFound
		}
		if view.Publication.State != entities.PublicationStateActive {
			return ports.NegotiationChanges{}, domainerrors.ErrInvalidStateTransition
		}
		if err := target.Accept(now); err != nil {
			return ports.NegotiationChanges{}, err
		}

		publication := view.Publication
		if err := publication.Reserve(now); err != nil {
			return ports.NegotiationChanges{}, err
		}

		acceptedEventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return ports.NegotiationChanges{}, err
		}
		acceptedEvent, err := newNegotiationEnvelope(acceptedEventID, EventTypeOfferAccepted, publicationID, now, map[string]any{
			"publication_id": publicationID,
			"offer_id":       target.OfferID,
			"bidder_id":      target.BidderID,
			"owner_id":       publication.OwnerID,
		})
		if err != nil {
			return ports.NegotiationChanges{}, err
		}

		changed := []entities.Offer{target}
		events := []ports.EventEnvelope{acceptedEvent}
		for _, other := range view.Offers {
			if other.OfferID == target.OfferID || other.State != entities.OfferStatePending {
				continue
			}
			if err := other.Reject(now); err != nil {
				return ports.NegotiationChanges{}, err
			}
			eventID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return ports.NegotiationChanges{}, err
			}
			event, err := newNegotiationEnvelope(eventID, EventTypeOfferAutoRejected, publicationID, now, map[string]any{
				"publication_id": publicationID,
				"offer_id":       other.OfferID,
				"bidder_id":      other.BidderID,
				"winning_offer":  target.OfferID,
			})
			if err != nil {
				return ports.NegotiationChanges{}, err
			}
			changed = append(changed, other)
			events = append(events, event)
			autoRejected++
		}

		return ports.NegotiationChanges{
			Publication: &publication,
			Offers:      changed,
			Events:      events,
		}, nil
	})
	if err != nil {
		return err
	}

	logger.Info("offer accepted",
		"event", "offer_accepted",
		"module", "exchange/negotiation-service",
		"layer", "application",
		"publication_id", publicationID,
		"offer_id", offerID,
		"actor_id", cmd.Actor.ID,
		"auto_rejected_count", autoRejected,
	)
	return nil
}

func (uc RespondOfferUseCase) Reject(ctx context.Context, cmd RejectOfferCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	publicationID := strings.TrimSpace(cmd.PublicationID)
	offerID := strings.TrimSpace(cmd.OfferID)

	err := uc.Repository.UpdateNegotiation(ctx, publicationID, func(view ports.NegotiationView) (ports.NegotiationChanges, error) {
		if !services.CanModerate(cmd.Actor, view.Publication) {
			return ports.NegotiationChanges{}, domainerrors.ErrActorNotAllowed
		}

		target, found := findOffer(view.Offers, offerID)
		if !found {
			return ports.NegotiationChanges{}, domainerrors.ErrOfferNotFound
		}
		if err := target.Reject(now); err != nil {
			return ports.NegotiationChanges{}, err
		}

		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return ports.NegotiationChanges{}, err
		}
		event, err := newNegotiationEnvelope(eventID, EventTypeOfferRejected, publicationID, now, map[string]any{
			"publication_id": publicationID,
			"offer_id":       target.OfferID,
			"bidder_id":      target.BidderID,
			"owner_id":       view.Publication.OwnerID,
		})
		if err != nil {
			return ports.NegotiationChanges{}, err
		}

		return ports.NegotiationChanges{
			Offers: []entities.Offer{target},
			Events: []ports.EventEnvelope{event},
		}, nil
	})
	if err != nil {
		return err
	}

	logger.Info("offer rejected",
		"event", "offer_rejected",
		"module", "exchange/negotiation-service",
		"layer", "application",
		"publication_id", publicationID,
		"offer_id", offerID,
		"actor_id", cmd.Actor.ID,
	)
	return nil
}

func findOffer(offers []entities.Offer, offerID string) (entities.Offer, bool) {
	for _, offer := range offers {
		if offer.OfferID == offerID {
			return offer, true
		}
	}
	return entities.Offer{}, false
}
