package outbox

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// Store reads and settles rows of the shared governance outbox table. Writers
// are the module repositories; only the relay reads.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) ListPending(ctx context.Context, limit int) ([]Message, error) {
	var rows []outboxModel
	if err := s.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		s.logger.Error("outbox list pending failed",
			"event", "outbox_list_pending_failed",
			"module", "internal/shared/outbox",
			"layer", "adapter",
			"error", err.Error(),
		)
		return nil, err
	}
	items := make([]Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, Message{
			ID:         row.ID,
			EventType:  row.EventType,
			Payload:    row.Payload,
			Status:     row.Status,
			RetryCount: row.RetryCount,
		})
	}
	return items, nil
}

func (s *Store) MarkPublished(ctx context.Context, messageID string) error {
	return s.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", messageID).
		Update("status", StatusPublished).
		Error
}

func (s *Store) MarkFailed(ctx context.Context, messageID string) error {
	return s.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", messageID).
		Updates(map[string]any{
			"status":      StatusFailed,
			"retry_count": gorm.Expr("retry_count + 1"),
		}).
		Error
}

type outboxModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	EventType  string    `gorm:"column:event_type"`
	Payload    []byte    `gorm:"column:payload"`
	Status     string    `gorm:"column:status;index"`
	RetryCount int       `gorm:"column:retry_count"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}
