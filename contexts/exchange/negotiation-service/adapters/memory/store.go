package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"trueque/contexts/exchange/negotiation-service/domain/entities"
	domainerrors "trueque/contexts/exchange/negotiation-service/domain/errors"
	"trueque/contexts/exchange/negotiation-service/ports"
	"trueque/internal/shared/outbox"

	"github.com/google/uuid"
)

// Store is the in-process repository. Each publication has its own lock so
// negotiations on different publications proceed independently, matching the
// row-lock behavior of the postgres adapter.
type Store struct {
	mu sync.RWMutex

	locks        map[string]chan struct{}
	publications map[string]entities.Publication
	offers       map[string]entities.Offer
	outboxRows   []outbox.Message
}

func NewStore(seed []entities.Publication) *Store {
	publications := make(map[string]entities.Publication, len(seed))
	for _, item := range seed {
		publications[item.PublicationID] = item
	}
	return &Store{
		locks:        make(map[string]chan struct{}),
		publications: publications,
		offers:       make(map[string]entities.Offer),
	}
}

func (s *Store) CreatePublication(_ context.Context, publication entities.Publication, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.publications[publication.PublicationID]; exists {
		return domainerrors.ErrInvalidPublicationInput
	}
	s.publications[publication.PublicationID] = publication
	return s.appendOutboxLocked(event)
}

func (s *Store) GetPublication(_ context.Context, publicationID string) (entities.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.publications[strings.TrimSpace(publicationID)]
	if !exists {
		return entities.Publication{}, domainerrors.ErrPublicationNotFound
	}
	return item, nil
}

func (s *Store) ListPublications(_ context.Context, filter ports.PublicationFilter) ([]entities.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Publication, 0, len(s.publications))
	for _, item := range s.publications {
		if filter.OwnerID != "" && item.OwnerID != filter.OwnerID {
			continue
		}
		if filter.State != "" && item.State != filter.State {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetOffer(_ context.Context, publicationID string, offerID string) (entities.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.offers[strings.TrimSpace(offerID)]
	if !exists || item.PublicationID != strings.TrimSpace(publicationID) {
		return entities.Offer{}, domainerrors.ErrOfferNotFound
	}
	return item, nil
}

func (s *Store) ListOffers(_ context.Context, filter ports.OfferFilter) ([]entities.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectOffersLocked(filter), nil
}

func (s *Store) UpdateNegotiation(ctx context.Context, publicationID string, fn ports.NegotiationUpdateFunc) error {
	publicationID = strings.TrimSpace(publicationID)

	unlock, err := s.acquire(ctx, publicationID)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.RLock()
	publication, exists := s.publications[publicationID]
	offers := s.collectOffersLocked(ports.OfferFilter{PublicationID: publicationID})
	s.mu.RUnlock()

	if !exists {
		return domainerrors.ErrPublicationNotFound
	}

	changes, err := fn(ports.NegotiationView{Publication: publication, Offers: offers})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if changes.Publication != nil {
		s.publications[changes.Publication.PublicationID] = *changes.Publication
	}
	for _, offer := range changes.Offers {
		s.offers[offer.OfferID] = offer
	}
	for _, event := range changes.Events {
		if err := s.appendOutboxLocked(event); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]outbox.Message, 0, limit)
	for _, row := range s.outboxRows {
		if row.Status != outbox.StatusPending {
			continue
		}
		items = append(items, row)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outboxRows {
		if s.outboxRows[i].OutboxID == outboxID {
			s.outboxRows[i].Status = outbox.StatusPublished
			return nil
		}
	}
	return domainerrors.ErrInvalidPublicationInput
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// acquire takes the per-publication lock, creating it on first use. A caller
// whose context expires while waiting gets ErrNegotiationBusy and the store
// stays untouched.
func (s *Store) acquire(ctx context.Context, publicationID string) (func(), error) {
	s.mu.Lock()
	lock, exists := s.locks[publicationID]
	if !exists {
		lock = make(chan struct{}, 1)
		s.locks[publicationID] = lock
	}
	s.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, domainerrors.ErrNegotiationBusy
	}
}

func (s *Store) collectOffersLocked(filter ports.OfferFilter) []entities.Offer {
	items := make([]entities.Offer, 0, len(s.offers))
	for _, item := range s.offers {
		if filter.PublicationID != "" && item.PublicationID != filter.PublicationID {
			continue
		}
		if filter.BidderID != "" && item.BidderID != filter.BidderID {
			continue
		}
		if filter.State != "" && item.State != filter.State {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OfferID < items[j].OfferID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (s *Store) appendOutboxLocked(event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	outboxID := event.EventID
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	s.outboxRows = append(s.outboxRows, outbox.Message{
		OutboxID:     outboxID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	})
	return nil
}
