package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trueque/contexts/exchange/negotiation-service/adapters/memory"
	"trueque/contexts/exchange/negotiation-service/application/commands"
	"trueque/contexts/exchange/negotiation-service/domain/entities"
	domainerrors "trueque/contexts/exchange/negotiation-service/domain/errors"
	"trueque/contexts/exchange/negotiation-service/ports"
)

type fixture struct {
	store   *memory.Store
	submit  commands.SubmitOfferUseCase
	respond commands.RespondOfferUseCase
	close   commands.CloseNegotiationUseCase
	pause   commands.PausePublicationUseCase
}

func newFixture(seed ...entities.Publication) fixture {
	store := memory.NewStore(seed)
	return fixture{
		store:   store,
		submit:  commands.SubmitOfferUseCase{Repository: store, Clock: store, IDGen: store},
		respond: commands.RespondOfferUseCase{Repository: store, Clock: store, IDGen: store},
		close:   commands.CloseNegotiationUseCase{Repository: store, Clock: store, IDGen: store},
		pause:   commands.PausePublicationUseCase{Repository: store, Clock: store, IDGen: store},
	}
}

func activePublication(id, owner string) entities.Publication {
	now := time.Now().UTC()
	return entities.Publication{
		PublicationID: id,
		OwnerID:       owner,
		Article:       entities.Article{Name: "mountain bike"},
		State:         entities.PublicationStateActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (f fixture) submitOffer(t *testing.T, publicationID, bidderID string) entities.Offer {
	t.Helper()
	offer, err := f.submit.Execute(context.Background(), commands.SubmitOfferCommand{
		PublicationID: publicationID,
		BidderID:      bidderID,
		ItemName:      "camping tent",
	})
	if err != nil {
		t.Fatalf("submit offer for %s failed: %v", bidderID, err)
	}
	return offer
}

func (f fixture) outboxCountByType(t *testing.T) map[string]int {
	t.Helper()
	rows, err := f.store.ListPendingOutbox(context.Background(), 100)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.EventType]++
	}
	return counts
}

func TestSubmitOfferOnActivePublication(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))

	offer := f.submitOffer(t, "pub-1", "bidder-1")
	if offer.State != entities.OfferStatePending {
		t.Fatalf("expected pending offer, got %s", offer.State)
	}

	counts := f.outboxCountByType(t)
	if counts[commands.EventTypeOfferSubmitted] != 1 {
		t.Fatalf("expected 1 offer_submitted event, got %d", counts[commands.EventTypeOfferSubmitted])
	}
}

func TestSubmitOfferUnknownPublication(t *testing.T) {
	f := newFixture()

	_, err := f.submit.Execute(context.Background(), commands.SubmitOfferCommand{
		PublicationID: "missing",
		BidderID:      "bidder-1",
		ItemName:      "camping tent",
	})
	if !errors.Is(err, domainerrors.ErrPublicationNotFound) {
		t.Fatalf("expected publication not found, got %v", err)
	}
}

func TestSubmitOfferValidation(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))

	_, err := f.submit.Execute(context.Background(), commands.SubmitOfferCommand{
		PublicationID: "pub-1",
		BidderID:      "bidder-1",
		ItemName:      "   ",
	})
	if !errors.Is(err, domainerrors.ErrInvalidOfferInput) {
		t.Fatalf("expected invalid offer input for blank item, got %v", err)
	}
}

func TestSubmitOfferOwnPublicationBlocked(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))

	_, err := f.submit.Execute(context.Background(), commands.SubmitOfferCommand{
		PublicationID: "pub-1",
		BidderID:      "owner-1",
		ItemName:      "camping tent",
	})
	if !errors.Is(err, domainerrors.ErrInvalidOfferInput) {
		t.Fatalf("expected invalid offer input for self-bid, got %v", err)
	}
}

func TestSubmitOfferDuplicatePendingBlocked(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	f.submitOffer(t, "pub-1", "bidder-1")

	_, err := f.submit.Execute(context.Background(), commands.SubmitOfferCommand{
		PublicationID: "pub-1",
		BidderID:      "bidder-1",
		ItemName:      "another tent",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateOffer) {
		t.Fatalf("expected duplicate offer, got %v", err)
	}
}

func TestAcceptOfferAutoRejectsCompetitors(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")
	o2 := f.submitOffer(t, "pub-1", "bidder-2")
	o3 := f.submitOffer(t, "pub-1", "bidder-3")

	err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o2.OfferID,
		Actor:         entities.Actor{ID: "owner-1"},
	})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	publication, err := f.store.GetPublication(context.Background(), "pub-1")
	if err != nil {
		t.Fatalf("get publication failed: %v", err)
	}
	if publication.State != entities.PublicationStateNegotiating {
		t.Fatalf("expected negotiating publication, got %s", publication.State)
	}
	if publication.ReservedAt == nil {
		t.Fatalf("expected reservedAt set")
	}

	for offerID, want := range map[string]entities.OfferState{
		o1.OfferID: entities.OfferStateRejected,
		o2.OfferID: entities.OfferStateAccepted,
		o3.OfferID: entities.OfferStateRejected,
	} {
		offer, err := f.store.GetOffer(context.Background(), "pub-1", offerID)
		if err != nil {
			t.Fatalf("get offer %s failed: %v", offerID, err)
		}
		if offer.State != want {
			t.Fatalf("offer %s: expected %s, got %s", offerID, want, offer.State)
		}
		if offer.RespondedAt == nil {
			t.Fatalf("offer %s: expected respondedAt set", offerID)
		}
	}

	counts := f.outboxCountByType(t)
	if counts[commands.EventTypeOfferAccepted] != 1 {
		t.Fatalf("expected 1 offer_accepted event, got %d", counts[commands.EventTypeOfferAccepted])
	}
	if counts[commands.EventTypeOfferAutoRejected] != 2 {
		t.Fatalf("expected 2 offer_auto_rejected events, got %d", counts[commands.EventTypeOfferAutoRejected])
	}
}

func TestAcceptOfferSharesOneTimestamp(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")
	o2 := f.submitOffer(t, "pub-1", "bidder-2")

	err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o1.OfferID,
		Actor:         entities.Actor{ID: "owner-1"},
	})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	publication, _ := f.store.GetPublication(context.Background(), "pub-1")
	winner, _ := f.store.GetOffer(context.Background(), "pub-1", o1.OfferID)
	loser, _ := f.store.GetOffer(context.Background(), "pub-1", o2.OfferID)

	if !winner.RespondedAt.Equal(*loser.RespondedAt) {
		t.Fatalf("winner and loser respondedAt differ: %v vs %v", winner.RespondedAt, loser.RespondedAt)
	}
	if !publication.ReservedAt.Equal(*winner.RespondedAt) {
		t.Fatalf("reservedAt differs from respondedAt: %v vs %v", publication.ReservedAt, winner.RespondedAt)
	}
}

func TestAcceptOfferRequiresModerator(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")

	err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o1.OfferID,
		Actor:         entities.Actor{ID: "bidder-2"},
	})
	if !errors.Is(err, domainerrors.ErrActorNotAllowed) {
		t.Fatalf("expected actor not allowed, got %v", err)
	}

	offer, _ := f.store.GetOffer(context.Background(), "pub-1", o1.OfferID)
	if offer.State != entities.OfferStatePending {
		t.Fatalf("offer state must be unchanged, got %s", offer.State)
	}
	publication, _ := f.store.GetPublication(context.Background(), "pub-1")
	if publication.State != entities.PublicationStateActive {
		t.Fatalf("publication state must be unchanged, got %s", publication.State)
	}
}

func TestAdminCanModerate(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")

	err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o1.OfferID,
		Actor:         entities.Actor{ID: "staff-1", Admin: true},
	})
	if err != nil {
		t.Fatalf("admin accept failed: %v", err)
	}
}

func TestAcceptOfferAfterReservationFails(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")
	o2 := f.submitOffer(t, "pub-1", "bidder-2")

	owner := entities.Actor{ID: "owner-1"}
	if err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o2.OfferID,
		Actor:         owner,
	}); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o1.OfferID,
		Actor:         owner,
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestAcceptUnknownOffer(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))

	err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       "missing",
		Actor:         entities.Actor{ID: "owner-1"},
	})
	if !errors.Is(err, domainerrors.ErrOfferNotFound) {
		t.Fatalf("expected offer not found, got %v", err)
	}
}

func TestAcceptOfferFromAnotherPublicationFails(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"), activePublication("pub-2", "owner-2"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")

	err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-2",
		OfferID:       o1.OfferID,
		Actor:         entities.Actor{ID: "owner-2"},
	})
	if !errors.Is(err, domainerrors.ErrOfferNotFound) {
		t.Fatalf("expected offer not found for foreign publication, got %v", err)
	}
}

func TestSubmitOfferWhileNegotiatingFails(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")

	if err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o1.OfferID,
		Actor:         entities.Actor{ID: "owner-1"},
	}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := f.submit.Execute(context.Background(), commands.SubmitOfferCommand{
		PublicationID: "pub-1",
		BidderID:      "bidder-2",
		ItemName:      "camping tent",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestRejectOfferLeavesPublicationActive(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")

	err := f.respond.Reject(context.Background(), commands.RejectOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o1.OfferID,
		Actor:         entities.Actor{ID: "owner-1"},
	})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	offer, _ := f.store.GetOffer(context.Background(), "pub-1", o1.OfferID)
	if offer.State != entities.OfferStateRejected {
		t.Fatalf("expected rejected offer, got %s", offer.State)
	}
	publication, _ := f.store.GetPublication(context.Background(), "pub-1")
	if publication.State != entities.PublicationStateActive {
		t.Fatalf("expected publication still active, got %s", publication.State)
	}

	counts := f.outboxCountByType(t)
	if counts[commands.EventTypeOfferRejected] != 1 {
		t.Fatalf("expected 1 offer_rejected event, got %d", counts[commands.EventTypeOfferRejected])
	}
}

func TestRejectOfferTwiceFails(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")

	owner := entities.Actor{ID: "owner-1"}
	cmd := commands.RejectOfferCommand{PublicationID: "pub-1", OfferID: o1.OfferID, Actor: owner}
	if err := f.respond.Reject(context.Background(), cmd); err != nil {
		t.Fatalf("first reject failed: %v", err)
	}

	first, _ := f.store.GetOffer(context.Background(), "pub-1", o1.OfferID)
	if err := f.respond.Reject(context.Background(), cmd); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition on second reject, got %v", err)
	}

	second, _ := f.store.GetOffer(context.Background(), "pub-1", o1.OfferID)
	if !second.RespondedAt.Equal(*first.RespondedAt) {
		t.Fatalf("second reject changed respondedAt")
	}
}

func TestCloseNegotiationThenCancelFails(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")

	owner := entities.Actor{ID: "owner-1"}
	if err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o1.OfferID,
		Actor:         owner,
	}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := f.close.Close(context.Background(), commands.CloseNegotiationCommand{
		PublicationID: "pub-1",
		Actor:         owner,
	}); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	publication, _ := f.store.GetPublication(context.Background(), "pub-1")
	if publication.State != entities.PublicationStateClosed {
		t.Fatalf("expected closed publication, got %s", publication.State)
	}
	if publication.ClosedAt == nil {
		t.Fatalf("expected closedAt set")
	}

	err := f.close.Cancel(context.Background(), commands.CancelNegotiationCommand{
		PublicationID: "pub-1",
		Actor:         owner,
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition after close, got %v", err)
	}
}

func TestCloseRequiresNegotiating(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))

	err := f.close.Close(context.Background(), commands.CloseNegotiationCommand{
		PublicationID: "pub-1",
		Actor:         entities.Actor{ID: "owner-1"},
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition for active publication, got %v", err)
	}
}

func TestCancelDoesNotResurrectRejectedOffers(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")
	o2 := f.submitOffer(t, "pub-1", "bidder-2")

	owner := entities.Actor{ID: "owner-1"}
	if err := f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
		PublicationID: "pub-1",
		OfferID:       o1.OfferID,
		Actor:         owner,
	}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := f.close.Cancel(context.Background(), commands.CancelNegotiationCommand{
		PublicationID: "pub-1",
		Actor:         owner,
	}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	publication, _ := f.store.GetPublication(context.Background(), "pub-1")
	if publication.State != entities.PublicationStateActive {
		t.Fatalf("expected reactivated publication, got %s", publication.State)
	}
	if publication.ReservedAt != nil {
		t.Fatalf("expected reservedAt cleared, got %v", publication.ReservedAt)
	}

	loser, _ := f.store.GetOffer(context.Background(), "pub-1", o2.OfferID)
	if loser.State != entities.OfferStateRejected {
		t.Fatalf("auto-rejected offer must stay rejected, got %s", loser.State)
	}
}

func TestPauseBlocksOffers(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))

	owner := entities.Actor{ID: "owner-1"}
	if err := f.pause.Pause(context.Background(), commands.PausePublicationCommand{
		PublicationID: "pub-1",
		Actor:         owner,
	}); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	_, err := f.submit.Execute(context.Background(), commands.SubmitOfferCommand{
		PublicationID: "pub-1",
		BidderID:      "bidder-1",
		ItemName:      "camping tent",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition on paused publication, got %v", err)
	}

	if err := f.pause.Resume(context.Background(), commands.PausePublicationCommand{
		PublicationID: "pub-1",
		Actor:         owner,
	}); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	f.submitOffer(t, "pub-1", "bidder-1")
}

func TestConcurrentAcceptsSingleWinner(t *testing.T) {
	f := newFixture(activePublication("pub-1", "owner-1"))
	o1 := f.submitOffer(t, "pub-1", "bidder-1")
	o2 := f.submitOffer(t, "pub-1", "bidder-2")

	owner := entities.Actor{ID: "owner-1"}
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, offerID := range []string{o1.OfferID, o2.OfferID} {
		wg.Add(1)
		go func(offerID string) {
			defer wg.Done()
			results <- f.respond.Accept(context.Background(), commands.AcceptOfferCommand{
				PublicationID: "pub-1",
				OfferID:       offerID,
				Actor:         owner,
			})
		}(offerID)
	}
	wg.Wait()
	close(results)

	var succeeded, failed int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
			t.Fatalf("unexpected race loser error: %v", err)
		}
		failed++
	}
	if succeeded != 1 || failed != 1 {
		t.Fatalf("expected exactly one winner and one loser, got %d/%d", succeeded, failed)
	}

	accepted, err := f.store.ListOffers(context.Background(), ports.OfferFilter{
		PublicationID: "pub-1",
		State:         entities.OfferStateAccepted,
	})
	if err != nil {
		t.Fatalf("list accepted offers failed: %v", err)
	}
	if len(accepted) != 1 {
		t.Fatalf("expected exactly one accepted offer, got %d", len(accepted))
	}

	publication, _ := f.store.GetPublication(context.Background(), "pub-1")
	if publication.State != entities.PublicationStateNegotiating {
		t.Fatalf("expected negotiating publication, got %s", publication.State)
	}
}
