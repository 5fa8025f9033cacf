package entities

import (
	"strings"
	"time"

	domainerrors "trueque/contexts/exchange/negotiation-service/domain/errors"
)

type OfferState string

const (
	OfferStatePending  OfferState = "pending"
	OfferStateAccepted OfferState = "accepted"
	OfferStateRejected OfferState = "rejected"
)

// ProposedItem is what the bidder puts on the table. Immutable payload.
type ProposedItem struct {
	Name        string
	Description string
	Price       *float64
}

// Offer is a bid on a publication. Accepted and rejected are both terminal;
// RespondedAt is set exactly once, when the offer leaves pending.
type Offer struct {
	OfferID       string
	PublicationID string
	BidderID      string
	Item          ProposedItem
	State         OfferState
	CreatedAt     time.Time
	RespondedAt   *time.Time
}

func (o Offer) ValidateCreate() bool {
	if strings.TrimSpace(o.PublicationID) == "" || strings.TrimSpace(o.BidderID) == "" {
		return false
	}
	if strings.TrimSpace(o.Item.Name) == "" {
		return false
	}
	if o.Item.Price != nil && *o.Item.Price < 0 {
		return false
	}
	return true
}

func (o *Offer) Accept(now time.Time) error {
	if o.State != OfferStatePending {
		return domainerrors.ErrInvalidStateTransition
	}
	ts := now.UTC()
	o.State = OfferStateAccepted
	o.RespondedAt = &ts
	return nil
}

func (o *Offer) Reject(now time.Time) error {
	if o.State != OfferStatePending {
		return domainerrors.ErrInvalidStateTransition
	}
	ts := now.UTC()
	o.State = OfferStateRejected
	o.RespondedAt = &ts
	return nil
}
