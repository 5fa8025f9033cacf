package entities

import (
	"strings"
	"time"

	domainerrors "trueque/contexts/exchange/negotiation-service/domain/errors"
)

type PublicationState string

const (
	PublicationStateActive      PublicationState = "active"
	PublicationStateNegotiating PublicationState = "negotiating"
	PublicationStatePaused      PublicationState = "paused"
	PublicationStateClosed      PublicationState = "closed"
)

// Article is the immutable business payload of a publication. The lifecycle
// never touches it.
type Article struct {
	Name           string
	Description    string
	ReferencePrice *float64
}

// Publication is a listing offered for exchange. State is mutated only
// through the transition methods below, and only the negotiation commands
// call them. Invariants: ReservedAt is set exactly while negotiating, and
// ClosedAt is set once on close and never cleared.
type Publication struct {
	PublicationID string
	OwnerID       string
	Article       Article
	State         PublicationState
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ReservedAt    *time.Time
	ClosedAt      *time.Time
}

func (p Publication) ValidateCreate() bool {
	if strings.TrimSpace(p.OwnerID) == "" || strings.TrimSpace(p.Article.Name) == "" {
		return false
	}
	if p.Article.ReferencePrice != nil && *p.Article.ReferencePrice < 0 {
		return false
	}
	return true
}

// AdmitsOffers reports whether new offers may be attached right now.
func (p Publication) AdmitsOffers() bool {
	return p.State == PublicationStateActive
}

// Reserve moves an active publication into negotiation after one of its
// offers is accepted.
func (p *Publication) Reserve(now time.Time) error {
	if p.State != PublicationStateActive {
		return domainerrors.ErrInvalidStateTransition
	}
	ts := now.UTC()
	p.State = PublicationStateNegotiating
	p.ReservedAt = &ts
	p.UpdatedAt = ts
	return nil
}

// Reactivate returns a negotiating publication to active, e.g. when the
// parties call the exchange off.
func (p *Publication) Reactivate(now time.Time) error {
	if p.State != PublicationStateNegotiating {
		return domainerrors.ErrInvalidStateTransition
	}
	p.State = PublicationStateActive
	p.ReservedAt = nil
	p.UpdatedAt = now.UTC()
	return nil
}

// Close is terminal. Allowed from any non-closed state.
func (p *Publication) Close(now time.Time) error {
	if p.State == PublicationStateClosed {
		return domainerrors.ErrInvalidStateTransition
	}
	ts := now.UTC()
	p.State = PublicationStateClosed
	p.ReservedAt = nil
	p.ClosedAt = &ts
	p.UpdatedAt = ts
	return nil
}

func (p *Publication) Pause(now time.Time) error {
	if p.State != PublicationStateActive {
		return domainerrors.ErrInvalidStateTransition
	}
	p.State = PublicationStatePaused
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Publication) Resume(now time.Time) error {
	if p.State != PublicationStatePaused {
		return domainerrors.ErrInvalidStateTransition
	}
	p.State = PublicationStateActive
	p.UpdatedAt = now.UTC()
	return nil
}
