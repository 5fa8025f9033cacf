package queries

import (
	"context"
	"log/slog"
	"strings"

	"trueque/contexts/exchange/negotiation-service/domain/entities"
	"trueque/contexts/exchange/negotiation-service/ports"
)

type ListPublicationsQuery struct {
	OwnerID string
	State   string
}

type ListOffersQuery struct {
	PublicationID string
	BidderID      string
	State         string
}

// NegotiationSummary is a read-model over one publication and its offers.
type NegotiationSummary struct {
	Publication entities.Publication
	Total       int
	Pending     int
	Accepted    int
	Rejected    int
}

// QueryUseCase serves lock-free reads. Reads may trail an in-flight
// coordinator operation but never observe a partially applied one.
type QueryUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func (uc QueryUseCase) GetPublication(ctx context.Context, publicationID string) (entities.Publication, error) {
	return uc.Repository.GetPublication(ctx, strings.TrimSpace(publicationID))
}

func (uc QueryUseCase) ListPublications(ctx context.Context, query ListPublicationsQuery) ([]entities.Publication, error) {
	return uc.Repository.ListPublications(ctx, ports.PublicationFilter{
		OwnerID: strings.TrimSpace(query.OwnerID),
		State:   entities.PublicationState(strings.TrimSpace(query.State)),
	})
}

func (uc QueryUseCase) GetOffer(ctx context.Context, publicationID string, offerID string) (entities.Offer, error) {
	return uc.Repository.GetOffer(ctx, strings.TrimSpace(publicationID), strings.TrimSpace(offerID))
}

func (uc QueryUseCase) ListOffers(ctx context.Context, query ListOffersQuery) ([]entities.Offer, error) {
	return uc.Repository.ListOffers(ctx, ports.OfferFilter{
		PublicationID: strings.TrimSpace(query.PublicationID),
		BidderID:      strings.TrimSpace(query.BidderID),
		State:         entities.OfferState(strings.TrimSpace(query.State)),
	})
}

func (uc QueryUseCase) Summary(ctx context.Context, publicationID string) (NegotiationSummary, error) {
	publication, err := uc.Repository.GetPublication(ctx, strings.TrimSpace(publicationID))
	if err != nil {
		return NegotiationSummary{}, err
	}
	offers, err := uc.Repository.ListOffers(ctx, ports.OfferFilter{PublicationID: publication.PublicationID})
	if err != nil {
		return NegotiationSummary{}, err
	}

	summary := NegotiationSummary{Publication: publication, Total: len(offers)}
	for _, offer := range offers {
		switch offer.State {
		case entities.OfferStatePending:
			summary.Pending++
		case entities.OfferStateAccepted:
			summary.Accepted++
		case entities.OfferStateRejected:
			summary.Rejected++
		}
	}
	return summary, nil
}
