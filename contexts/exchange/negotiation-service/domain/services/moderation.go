package services

import "trueque/contexts/exchange/negotiation-service/domain/entities"

// CanModerate reports whether the actor may accept or reject offers and
// drive the negotiation of the given publication: the owner may, and so may
// an admin. Pure check, no side effects.
func CanModerate(actor entities.Actor, publication entities.Publication) bool {
	if actor.Admin {
		return true
	}
	return actor.ID != "" && actor.ID == publication.OwnerID
}
