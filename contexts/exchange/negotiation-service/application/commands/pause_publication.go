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

type PausePublicationCommand struct {
	PublicationID string
	Actor         entities.Actor
}

// PausePublicationUseCase takes a listing off the market temporarily.
// Paused publications admit no offers until resumed.
type PausePublicationUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc PausePublicationUseCase) Pause(ctx context.Context, cmd PausePublicationCommand) error {
	return uc.toggle(ctx, cmd, true)
}

func (uc PausePublicationUseCase) Resume(ctx context.Context, cmd PausePublicationCommand) error {
	return uc.toggle(ctx, cmd, false)
}

func (uc PausePublicationUseCase) toggle(ctx context.Context, cmd PausePublicationCommand, pause bool) error {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	publicationID := strings.TrimSpace(cmd.PublicationID)

	eventType := EventTypePublicationPaused
	logEvent := "publication_paused"
	if !pause {
		eventType = EventTypePublicationResumed
		logEvent = "publication_resumed"
	}

	err := uc.Repository.UpdateNegotiation(ctx, publicationID, func(view ports.NegotiationView) (ports.NegotiationChanges, error) {
		if !services.CanModerate(cmd.Actor, view.Publication) {
			return ports.NegotiationChanges{}, domainerrors.ErrActorNotAllowed
		}

		publication := view.Publication
		var transitionErr error
		if pause {
			transitionErr = publication.Pause(now)
		} else {
			transitionErr = publication.Resume(now)
		}
		if transitionErr != nil {
			return ports.NegotiationChanges{}, transitionErr
		}

		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return ports.NegotiationChanges{}, err
		}
		event, err := newNegotiationEnvelope(eventID, eventType, publicationID, now, map[string]any{
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

	logger.Info(logEvent,
		"event", logEvent,
		"module", "exchange/negotiation-service",
		"layer", "application",
		"publication_id", publicationID,
		"actor_id", cmd.Actor.ID,
	)
	return nil
}
