package services_test

import (
	"testing"

	"trueque/contexts/exchange/negotiation-service/domain/entities"
	"trueque/contexts/exchange/negotiation-service/domain/services"
)

func TestCanModerate(t *testing.T) {
	publication := entities.Publication{PublicationID: "pub-1", OwnerID: "owner-1"}

	cases := []struct {
		name  string
		actor entities.Actor
		want  bool
	}{
		{"owner", entities.Actor{ID: "owner-1"}, true},
		{"admin", entities.Actor{ID: "staff-1", Admin: true}, true},
		{"stranger", entities.Actor{ID: "bidder-1"}, false},
		{"anonymous", entities.Actor{}, false},
	}
	for _, tc := range cases {
		if got := services.CanModerate(tc.actor, publication); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
