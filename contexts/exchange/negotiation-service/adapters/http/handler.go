package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"trueque/contexts/exchange/negotiation-service/application/commands"
	"trueque/contexts/exchange/negotiation-service/application/queries"
	"trueque/contexts/exchange/negotiation-service/domain/entities"
	httptransport "trueque/contexts/exchange/negotiation-service/transport/http"
)

type Handler struct {
	CreatePublication commands.CreatePublicationUseCase
	SubmitOffer       commands.SubmitOfferUseCase
	RespondOffer      commands.RespondOfferUseCase
	CloseNegotiation  commands.CloseNegotiationUseCase
	PausePublication  commands.PausePublicationUseCase
	Queries           queries.QueryUseCase
	Logger            *slog.Logger
}

func (h Handler) CreatePublicationHandler(
	ctx context.Context,
	ownerID string,
	req httptransport.CreatePublicationRequest,
) (httptransport.CreatePublicationResponse, error) {
	item, err := h.CreatePublication.Execute(ctx, commands.CreatePublicationCommand{
		OwnerID:        ownerID,
		ArticleName:    req.ArticleName,
		Description:    req.Description,
		ReferencePrice: req.ReferencePrice,
	})
	if err != nil {
		return httptransport.CreatePublicationResponse{}, err
	}
	return httptransport.CreatePublicationResponse{
		Publication: mapPublication(item),
	}, nil
}

func (h Handler) GetPublicationHandler(ctx context.Context, publicationID string) (httptransport.GetPublicationResponse, error) {
	item, err := h.Queries.GetPublication(ctx, publicationID)
	if err != nil {
		return httptransport.GetPublicationResponse{}, err
	}
	return httptransport.GetPublicationResponse{
		Publication: mapPublication(item),
	}, nil
}

func (h Handler) ListPublicationsHandler(
	ctx context.Context,
	ownerID string,
	state string,
) (httptransport.ListPublicationsResponse, error) {
	items, err := h.Queries.ListPublications(ctx, queries.ListPublicationsQuery{
		OwnerID: ownerID,
		State:   state,
	})
	if err != nil {
		return httptransport.ListPublicationsResponse{}, err
	}
	result := make([]httptransport.PublicationDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapPublication(item))
	}
	return httptransport.ListPublicationsResponse{Items: result}, nil
}

func (h Handler) SubmitOfferHandler(
	ctx context.Context,
	bidderID string,
	publicationID string,
	req httptransport.SubmitOfferRequest,
) (httptransport.SubmitOfferResponse, error) {
	item, err := h.SubmitOffer.Execute(ctx, commands.SubmitOfferCommand{
		PublicationID:   publicationID,
		BidderID:        bidderID,
		ItemName:        req.ItemName,
		ItemDescription: req.ItemDescription,
		ItemPrice:       req.ItemPrice,
	})
	if err != nil {
		return httptransport.SubmitOfferResponse{}, err
	}
	return httptransport.SubmitOfferResponse{
		Offer: mapOffer(item),
	}, nil
}

func (h Handler) GetOfferHandler(
	ctx context.Context,
	publicationID string,
	offerID string,
) (httptransport.GetOfferResponse, error) {
	item, err := h.Queries.GetOffer(ctx, publicationID, offerID)
	if err != nil {
		return httptransport.GetOfferResponse{}, err
	}
	return httptransport.GetOfferResponse{
		Offer: mapOffer(item),
	}, nil
}

func (h Handler) ListOffersHandler(
	ctx context.Context,
	publicationID string,
	bidderID string,
	state string,
) (httptransport.ListOffersResponse, error) {
	items, err := h.Queries.ListOffers(ctx, queries.ListOffersQuery{
		PublicationID: publicationID,
		BidderID:      bidderID,
		State:         state,
	})
	if err != nil {
		return httptransport.ListOffersResponse{}, err
	}
	result := make([]httptransport.OfferDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapOffer(item))
	}
	return httptransport.ListOffersResponse{Items: result}, nil
}

func (h Handler) AcceptOfferHandler(
	ctx context.Context,
	actor entities.Actor,
	publicationID string,
	offerID string,
) error {
	return h.RespondOffer.Accept(ctx, commands.AcceptOfferCommand{
		PublicationID: publicationID,
		OfferID:       offerID,
		Actor:         actor,
	})
}

func (h Handler) RejectOfferHandler(
	ctx context.Context,
	actor entities.Actor,
	publicationID string,
	offerID string,
) error {
	return h.RespondOffer.Reject(ctx, commands.RejectOfferCommand{
		PublicationID: publicationID,
		OfferID:       offerID,
		Actor:         actor,
	})
}

func (h Handler) CloseNegotiationHandler(ctx context.Context, actor entities.Actor, publicationID string) error {
	return h.CloseNegotiation.Close(ctx, commands.CloseNegotiationCommand{
		PublicationID: publicationID,
		Actor:         actor,
	})
}

func (h Handler) CancelNegotiationHandler(ctx context.Context, actor entities.Actor, publicationID string) error {
	return h.CloseNegotiation.Cancel(ctx, commands.CancelNegotiationCommand{
		PublicationID: publicationID,
		Actor:         actor,
	})
}

func (h Handler) PausePublicationHandler(ctx context.Context, actor entities.Actor, publicationID string) error {
	return h.PausePublication.Pause(ctx, commands.PausePublicationCommand{
		PublicationID: publicationID,
		Actor:         actor,
	})
}

func (h Handler) ResumePublicationHandler(ctx context.Context, actor entities.Actor, publicationID string) error {
	return h.PausePublication.Resume(ctx, commands.PausePublicationCommand{
		PublicationID: publicationID,
		Actor:         actor,
	})
}

func (h Handler) SummaryHandler(ctx context.Context, publicationID string) (httptransport.SummaryResponse, error) {
	summary, err := h.Queries.Summary(ctx, publicationID)
	if err != nil {
		return httptransport.SummaryResponse{}, err
	}
	return httptransport.SummaryResponse{
		Publication: mapPublication(summary.Publication),
		Total:       summary.Total,
		Pending:     summary.Pending,
		Accepted:    summary.Accepted,
		Rejected:    summary.Rejected,
	}, nil
}

func mapPublication(item entities.Publication) httptransport.PublicationDTO {
	return httptransport.PublicationDTO{
		PublicationID:  item.PublicationID,
		OwnerID:        item.OwnerID,
		ArticleName:    item.Article.Name,
		Description:    item.Article.Description,
		ReferencePrice: item.Article.ReferencePrice,
		State:          string(item.State),
		CreatedAt:      formatTime(item.CreatedAt),
		UpdatedAt:      formatTime(item.UpdatedAt),
		ReservedAt:     formatOptionalTime(item.ReservedAt),
		ClosedAt:       formatOptionalTime(item.ClosedAt),
	}
}

func mapOffer(item entities.Offer) httptransport.OfferDTO {
	return httptransport.OfferDTO{
		OfferID:         item.OfferID,
		PublicationID:   item.PublicationID,
		BidderID:        item.BidderID,
		ItemName:        item.Item.Name,
		ItemDescription: item.Item.Description,
		ItemPrice:       item.Item.Price,
		State:           string(item.State),
		CreatedAt:       formatTime(item.CreatedAt),
		RespondedAt:     formatOptionalTime(item.RespondedAt),
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func formatOptionalTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return formatTime(*value)
}
