package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"trueque/contexts/exchange/negotiation-service/domain/entities"
	domainerrors "trueque/contexts/exchange/negotiation-service/domain/errors"
	"trueque/contexts/exchange/negotiation-service/ports"
	"trueque/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreatePublication(ctx context.Context, publication entities.Publication, event ports.EventEnvelope) error {
	row := publicationModelFromEntity(publication)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidPublicationInput
			}
			return err
		}
		return appendOutboxTx(tx, event)
	})
}

func (r *Repository) GetPublication(ctx context.Context, publicationID string) (entities.Publication, error) {
	var row publicationModel
	err := r.db.WithContext(ctx).
		Where("publication_id = ?", strings.TrimSpace(publicationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Publication{}, domainerrors.ErrPublicationNotFound
		}
		return entities.Publication{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPublications(ctx context.Context, filter ports.PublicationFilter) ([]entities.Publication, error) {
	tx := r.db.WithContext(ctx).Model(&publicationModel{})
	if strings.TrimSpace(filter.OwnerID) != "" {
		tx = tx.Where("owner_id = ?", strings.TrimSpace(filter.OwnerID))
	}
	if filter.State != "" {
		tx = tx.Where("state = ?", string(filter.State))
	}

	var rows []publicationModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Publication, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetOffer(ctx context.Context, publicationID string, offerID string) (entities.Offer, error) {
	var row offerModel
	err := r.db.WithContext(ctx).
		Where("publication_id = ?", strings.TrimSpace(publicationID)).
		Where("offer_id = ?", strings.TrimSpace(offerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Offer{}, domainerrors.ErrOfferNotFound
		}
		return entities.Offer{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListOffers(ctx context.Context, filter ports.OfferFilter) ([]entities.Offer, error) {
	tx := r.db.WithContext(ctx).Model(&offerModel{})
	if strings.TrimSpace(filter.PublicationID) != "" {
		tx = tx.Where("publication_id = ?", strings.TrimSpace(filter.PublicationID))
	}
	if strings.TrimSpace(filter.BidderID) != "" {
		tx = tx.Where("bidder_id = ?", strings.TrimSpace(filter.BidderID))
	}
	if filter.State != "" {
		tx = tx.Where("state = ?", string(filter.State))
	}

	var rows []offerModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Offer, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// UpdateNegotiation serializes every mutating negotiation operation on one
// publication behind a row-level exclusive lock. Two racing accepts cannot
// interleave: the loser re-reads the publication after the winner commits and
// fails its state check inside fn.
func (r *Repository) UpdateNegotiation(ctx context.Context, publicationID string, fn ports.NegotiationUpdateFunc) error {
	publicationID = strings.TrimSpace(publicationID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pubRow publicationModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("publication_id = ?", publicationID).
			First(&pubRow).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrPublicationNotFound
			}
			return err
		}

		var offerRows []offerModel
		if err := tx.
			Where("publication_id = ?", publicationID).
			Order("created_at ASC").
			Find(&offerRows).
			Error; err != nil {
			return err
		}

		offers := make([]entities.Offer, 0, len(offerRows))
		for _, row := range offerRows {
			offers = append(offers, row.toEntity())
		}

		changes, err := fn(ports.NegotiationView{
			Publication: pubRow.toEntity(),
			Offers:      offers,
		})
		if err != nil {
			return err
		}

		if changes.Publication != nil {
			result := tx.Model(&publicationModel{}).
				Where("publication_id = ?", changes.Publication.PublicationID).
				Updates(publicationUpdatesFromEntity(*changes.Publication))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domainerrors.ErrPublicationNotFound
			}
		}

		for _, offer := range changes.Offers {
			row := offerModelFromEntity(offer)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "offer_id"}},
				UpdateAll: true,
			}).Create(&row).Error; err != nil {
				return err
			}
		}

		for _, event := range changes.Events {
			if err := appendOutboxTx(tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if isLockUnavailable(err) || errors.Is(err, context.DeadlineExceeded) {
		return domainerrors.ErrNegotiationBusy
	}
	return err
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			Status:       row.Status,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPublicationNotFound
	}
	return nil
}

func appendOutboxTx(tx *gorm.DB, event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(event.EventID),
		EventType:    strings.TrimSpace(event.EventType),
		PartitionKey: strings.TrimSpace(event.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

type publicationModel struct {
	PublicationID  string     `gorm:"column:publication_id;primaryKey"`
	OwnerID        string     `gorm:"column:owner_id"`
	ArticleName    string     `gorm:"column:article_name"`
	ArticleDetails string     `gorm:"column:article_details"`
	ReferencePrice *float64   `gorm:"column:reference_price"`
	State          string     `gorm:"column:state"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
	ReservedAt     *time.Time `gorm:"column:reserved_at"`
	ClosedAt       *time.Time `gorm:"column:closed_at"`
}

func (publicationModel) TableName() string {
	return "publications"
}

func publicationModelFromEntity(item entities.Publication) publicationModel {
	return publicationModel{
		PublicationID:  strings.TrimSpace(item.PublicationID),
		OwnerID:        strings.TrimSpace(item.OwnerID),
		ArticleName:    strings.TrimSpace(item.Article.Name),
		ArticleDetails: strings.TrimSpace(item.Article.Description),
		ReferencePrice: item.Article.ReferencePrice,
		State:          string(item.State),
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
		ReservedAt:     normalizeOptionalTime(item.ReservedAt),
		ClosedAt:       normalizeOptionalTime(item.ClosedAt),
	}
}

func publicationUpdatesFromEntity(item entities.Publication) map[string]any {
	row := publicationModelFromEntity(item)
	return map[string]any{
		"state":       row.State,
		"updated_at":  row.UpdatedAt,
		"reserved_at": row.ReservedAt,
		"closed_at":   row.ClosedAt,
	}
}

func (m publicationModel) toEntity() entities.Publication {
	return entities.Publication{
		PublicationID: m.PublicationID,
		OwnerID:       m.OwnerID,
		Article: entities.Article{
			Name:           m.ArticleName,
			Description:    m.ArticleDetails,
			ReferencePrice: m.ReferencePrice,
		},
		State:      entities.PublicationState(m.State),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
		ReservedAt: normalizeOptionalTime(m.ReservedAt),
		ClosedAt:   normalizeOptionalTime(m.ClosedAt),
	}
}

type offerModel struct {
	OfferID         string     `gorm:"column:offer_id;primaryKey"`
	PublicationID   string     `gorm:"column:publication_id"`
	BidderID        string     `gorm:"column:bidder_id"`
	ItemName        string     `gorm:"column:item_name"`
	ItemDescription string     `gorm:"column:item_description"`
	ItemPrice       *float64   `gorm:"column:item_price"`
	State           string     `gorm:"column:state"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	RespondedAt     *time.Time `gorm:"column:responded_at"`
}

func (offerModel) TableName() string {
	return "offers"
}

func offerModelFromEntity(item entities.Offer) offerModel {
	return offerModel{
		OfferID:         strings.TrimSpace(item.OfferID),
		PublicationID:   strings.TrimSpace(item.PublicationID),
		BidderID:        strings.TrimSpace(item.BidderID),
		ItemName:        strings.TrimSpace(item.Item.Name),
		ItemDescription: strings.TrimSpace(item.Item.Description),
		ItemPrice:       item.Item.Price,
		State:           string(item.State),
		CreatedAt:       item.CreatedAt.UTC(),
		RespondedAt:     normalizeOptionalTime(item.RespondedAt),
	}
}

func (m offerModel) toEntity() entities.Offer {
	return entities.Offer{
		OfferID:       m.OfferID,
		PublicationID: m.PublicationID,
		BidderID:      m.BidderID,
		Item: entities.ProposedItem{
			Name:        m.ItemName,
			Description: m.ItemDescription,
			Price:       m.ItemPrice,
		},
		State:       entities.OfferState(m.State),
		CreatedAt:   m.CreatedAt.UTC(),
		RespondedAt: normalizeOptionalTime(m.RespondedAt),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "negotiation_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isLockUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
