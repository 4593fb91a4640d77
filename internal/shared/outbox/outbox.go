package outbox

// Message is an outbox row persisted inside the same critical section as the
// governance state change it describes. The worker relay reads pending rows
// and publishes them to the event bus.
type Message struct {
	ID         string
	EventType  string
	Payload    []byte
	Status     string // pending, published, failed
	RetryCount int
}

const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusFailed    = "failed"
)
