package commands

import (
	"context"
	"log/slog"
	"strings"

	application "trueque/contexts/exchange/negotiation-service/application"
	"trueque/contexts/exchange/negotiation-service/domain/entities"
	domainerrors "trueque/contexts/exchange/negotiation-service/domain/errors"
	"trueque/contexts/exchange/negotiation-service/ports"
)

type SubmitOfferCommand struct {
	PublicationID   string
	BidderID        string
	ItemName        string
	ItemDescription string
	ItemPrice       *float64
}

type SubmitOfferUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc SubmitOfferUseCase) Execute(ctx context.Context, cmd SubmitOfferCommand) (entities.Offer, error) {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	offerID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Offer{}, err
	}

	offer := entities.Offer{
		OfferID:       offerID,
		PublicationID: strings.TrimSpace(cmd.PublicationID),
		BidderID:      strings.TrimSpace(cmd.BidderID),
		Item: entities.ProposedItem{
			Name:        strings.TrimSpace(cmd.ItemName),
			Description: strings.TrimSpace(cmd.ItemDescription),
			Price:       cmd.ItemPrice,
		},
		State:     entities.OfferStatePending,
		CreatedAt: now,
	}
	if !offer.ValidateCreate() {
		return entities.Offer{}, domainerrors.ErrInvalidOfferInput
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Offer{}, err
	}

	err = uc.Repository.UpdateNegotiation(ctx, offer.PublicationID, func(view ports.NegotiationView) (ports.NegotiationChanges, error) {
		if view.Publication.OwnerID == offer.BidderID {
			return ports.NegotiationChanges{}, domainerrors.ErrInvalidOfferInput
		}
		if !view.Publication.AdmitsOffers() {
			return ports.NegotiationChanges{}, domainerrors.ErrInvalidStateTransition
		}
		for _, existing := range view.Offers {
			if existing.BidderID == offer.BidderID && existing.State == entities.OfferStatePending {
				return ports.NegotiationChanges{}, domainerrors.ErrDuplicateOffer
			}
		}

		event, err := newNegotiationEnvelope(eventID, EventTypeOfferSubmitted, offer.PublicationID, now, map[string]any{
			"publication_id": offer.PublicationID,
			"offer_id":       offer.OfferID,
			"bidder_id":      offer.BidderID,
			"owner_id":       view.Publication.OwnerID,
		})
		if err != nil {
			return ports.NegotiationChanges{}, err
		}
		return ports.NegotiationChanges{
			Offers: []entities.Offer{offer},
			Events: []ports.EventEnvelope{event},
		}, nil
	})
	if err != nil {
		return entities.Offer{}, err
	}

	logger.Info("offer submitted",
		"event", "offer_submitted",
		"module", "exchange/negotiation-service",
		"layer", "application",
		"publication_id", offer.PublicationID,
		"offer_id", offer.OfferID,
		"bidder_id", offer.BidderID,
	)
	return offer, nil
}
