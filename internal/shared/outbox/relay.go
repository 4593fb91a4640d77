package outbox

import (
	"context"
	"encoding/json"
	"log/slog"

	"concord/internal/shared/events"
)

// Publisher is the bus side of the relay.
type Publisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// Reader is what the relay needs from storage. *Store satisfies it; tests
// substitute an in-memory reader.
type Reader interface {
	ListPending(ctx context.Context, limit int) ([]Message, error)
	MarkPublished(ctx context.Context, messageID string) error
	MarkFailed(ctx context.Context, messageID string) error
}

// Relay drains pending outbox rows into the event bus. A failed publish marks
// the row failed and moves on; the row stays visible for operators.
type Relay struct {
	Outbox    Reader
	Publisher Publisher
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r Relay) RunOnce(ctx context.Context) error {
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}
	pending, err := r.Outbox.ListPending(ctx, batch)
	if err != nil {
		return err
	}

	for _, message := range pending {
		var envelope events.Envelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			r.logger().Error("outbox payload unreadable",
				"event", "outbox_relay_bad_payload",
				"module", "internal/shared/outbox",
				"layer", "worker",
				"message_id", message.ID,
				"error", err.Error(),
			)
			if err := r.Outbox.MarkFailed(ctx, message.ID); err != nil {
				return err
			}
			continue
		}

		if err := r.Publisher.Publish(ctx, r.topic(), envelope); err != nil {
			r.logger().Error("outbox publish failed",
				"event", "outbox_relay_publish_failed",
				"module", "internal/shared/outbox",
				"layer", "worker",
				"message_id", message.ID,
				"error", err.Error(),
			)
			if err := r.Outbox.MarkFailed(ctx, message.ID); err != nil {
				return err
			}
			continue
		}
		if err := r.Outbox.MarkPublished(ctx, message.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r Relay) topic() string {
	if r.Topic != "" {
		return r.Topic
	}
	return "governance.events"
}

func (r Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
