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

type CreatePublicationCommand struct {
	OwnerID        string
	ArticleName    string
	Description    string
	ReferencePrice *float64
}

type CreatePublicationUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CreatePublicationUseCase) Execute(ctx context.Context, cmd CreatePublicationCommand) (entities.Publication, error) {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	publicationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Publication{}, err
	}

	publication := entities.Publication{
		PublicationID: publicationID,
		OwnerID:       strings.TrimSpace(cmd.OwnerID),
		Article: entities.Article{
			Name:           strings.TrimSpace(cmd.ArticleName),
			Description:    strings.TrimSpace(cmd.Description),
			ReferencePrice: cmd.ReferencePrice,
		},
		State:     entities.PublicationStateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !publication.ValidateCreate() {
		return entities.Publication{}, domainerrors.ErrInvalidPublicationInput
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Publication{}, err
	}
	event, err := newNegotiationEnvelope(eventID, EventTypePublicationListed, publication.PublicationID, now, map[string]any{
		"publication_id": publication.PublicationID,
		"owner_id":       publication.OwnerID,
		"article_name":   publication.Article.Name,
	})
	if err != nil {
		return entities.Publication{}, err
	}

	if err := uc.Repository.CreatePublication(ctx, publication, event); err != nil {
		return entities.Publication{}, err
	}

	logger.Info("publication listed",
		"event", "publication_listed",
		"module", "exchange/negotiation-service",
		"layer", "application",
		"publication_id", publication.PublicationID,
		"owner_id", publication.OwnerID,
	)
	return publication, nil
}
