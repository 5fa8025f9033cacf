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

type CloseNegotiationCommand struct {
	PublicationID string
	Actor         entities.Actor
}

type CancelNegotiationCommand struct {
	PublicationID string
	Actor         entities.Actor
}

// CloseNegotiationUseCase finishes or calls off a negotiation. Close marks
// the exchange as done and is terminal; Cancel returns the publication to
// active without resurrecting auto-rejected offers.
type CloseNegotiationUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CloseNegotiationUseCase) Close(ctx context.Context, cmd CloseNegotiationCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	publicationID := strings.TrimSpace(cmd.PublicationID)

	err := uc.Repository.UpdateNegotiation(ctx, publicationID, func(view ports.NegotiationView) (ports.NegotiationChanges, error) {
		if !services.CanModerate(cmd.Actor, view.Publication) {
			return ports.NegotiationChanges{}, domainerrors.ErrActorNotAllowed
		}
		if view.Publication.State != entities.PublicationStateNegotiating {
			return ports.NegotiationChanges{}, domainerrors.ErrInvalidStateTransition
		}

		publication := view.Publication
		if err := publication.Close(now); err != nil {
			return ports.NegotiationChanges{}, err
		}

		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return ports.NegotiationChanges{}, err
		}
		event, err := newNegotiationEnvelope(eventID, EventTypeNegotiationClosed, publicationID, now, map[string]any{
			"publication_id": publicationID,
			"owner_id":       publication.OwnerID,
		})
		if err != nil {
			return ports.NegotiationChanges{}, err
		}

		return ports.NegotiationChanges{
			Publication: &publication,
			Events:      []ports.EventEnvelope{event},
		}, nil
	})
	if err != nil {
		return err
	}

	logger.Info("negotiation closed",
		"event", "negotiation_closed",
		"module", "exchange/negotiation-service",
		"layer", "application",
		"publication_id", publicationID,
		"actor_id", cmd.Actor.ID,
	)
	return nil
}

func (uc CloseNegotiationUseCase) Cancel(ctx context.Context, cmd CancelNegotiationCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	publicationID := strings.TrimSpace(cmd.PublicationID)

	err := uc.Repository.UpdateNegotiation(ctx, publicationID, func(view ports.NegotiationView) (ports.NegotiationChanges, error) {
		if !services.CanModerate(cmd.Actor, view.Publication) {
			return ports.NegotiationChanges{}, domainerrors.ErrActorNotAllowed
		}

		publication := view.Publication
		if err := publication.Reactivate(now); err != nil {
			return ports.NegotiationChanges{}, err
		}

		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return ports.NegotiationChanges{}, err
		}
		event, err := newNegotiationEnvelope(eventID, EventTypeNegotiationCancelled, publicationID, now, map[string]any{
			"publication_id": publicationID,
			"owner_id":       publication.OwnerID,
		})
		if err != nil {
			return ports.NegotiationChanges{}, err
		}

		return ports.NegotiationChanges{
			Publication: &publication,
			Events:      []ports.EventEnvelope{event},
		}, nil
	})
	if err != nil {
		return err
	}

	logger.Info("negotiation cancelled",
		"event", "negotiation_cancelled",
		"module", "exchange/negotiation-service",
		"layer", "application",
		"publication_id", publicationID,
		"actor_id", cmd.Actor.ID,
	)
	return nil
}
