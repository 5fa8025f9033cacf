package errors

import "errors"

var (
	ErrPublicationNotFound     = errors.New("publication not found")
	ErrOfferNotFound           = errors.New("offer not found")
	ErrInvalidStateTransition  = errors.New("invalid negotiation state transition")
	ErrActorNotAllowed         = errors.New("actor is not allowed to moderate this publication")
	ErrInvalidPublicationInput = errors.New("invalid publication input")
	ErrInvalidOfferInput       = errors.New("invalid offer input")
	ErrDuplicateOffer          = errors.New("bidder already has a pending offer on this publication")
	ErrNegotiationBusy         = errors.New("negotiation is busy, try again")
)
