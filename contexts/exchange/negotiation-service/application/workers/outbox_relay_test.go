package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trueque/contexts/exchange/negotiation-service/adapters/memory"
	"trueque/contexts/exchange/negotiation-service/application/commands"
	"trueque/contexts/exchange/negotiation-service/application/workers"
	"trueque/contexts/exchange/negotiation-service/domain/entities"
	"trueque/contexts/exchange/negotiation-service/ports"
)

type capturingPublisher struct {
	published []ports.EventEnvelope
	topics    []string
	fail      error
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, event)
	p.topics = append(p.topics, topic)
	return nil
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	now := time.Now().UTC()
	store := memory.NewStore([]entities.Publication{{
		PublicationID: "pub-1",
		OwnerID:       "owner-1",
		Article:       entities.Article{Name: "mountain bike"},
		State:         entities.PublicationStateActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}})

	submit := commands.SubmitOfferUseCase{Repository: store, Clock: store, IDGen: store}
	if _, err := submit.Execute(context.Background(), commands.SubmitOfferCommand{
		PublicationID: "pub-1",
		BidderID:      "bidder-1",
		ItemName:      "camping tent",
	}); err != nil {
		t.Fatalf("seed offer failed: %v", err)
	}
	return store
}

func TestOutboxRelayPublishesAndMarks(t *testing.T) {
	store := seededStore(t)
	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.published))
	}
	if publisher.topics[0] != commands.EventTypeOfferSubmitted {
		t.Fatalf("expected topic %s, got %s", commands.EventTypeOfferSubmitted, publisher.topics[0])
	}
	if publisher.published[0].PartitionKey != "pub-1" {
		t.Fatalf("expected partition key pub-1, got %s", publisher.published[0].PartitionKey)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after relay, got %d rows", len(pending))
	}
}

func TestOutboxRelayKeepsRowOnPublishFailure(t *testing.T) {
	store := seededStore(t)
	publisher := &capturingPublisher{fail: errors.New("broker unavailable")}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected relay error on publish failure")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected row kept pending after failure, got %d rows", len(pending))
	}
}

func TestOutboxRelayEmptyBacklogIsNoop(t *testing.T) {
	store := memory.NewStore(nil)
	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no publishes, got %d", len(publisher.published))
	}
}
