package outbox

import "time"

const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

// Message is an outbox row persisted inside the same atomic unit as the state
// change it announces. The worker relay reads pending rows and publishes them
// to the event bus; a committed transition is never rolled back because
// publishing failed.
type Message struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string // pending, published
	CreatedAt    time.Time
}
