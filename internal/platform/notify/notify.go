package notify

import (
	"context"
	"log/slog"
	"sync"
)

// PromotionApprovedPayload is the outbound contract consumed by the
// chat-platform collaborator when a portfolio enters peer voting.
type PromotionApprovedPayload struct {
	MemberID     string `json:"member_id"`
	TargetRole   string `json:"target_role"`
	PortfolioURL string `json:"portfolio_url"`
	DeadlineUnix int64  `json:"deadline_unix_ts"`
	SubjectID    string `json:"subject_id"`
}

// Notifier delivers governance notifications. Delivery is best-effort:
// callers log failures and never roll back committed state.
type Notifier interface {
	NotifyPromotionApproved(ctx context.Context, payload PromotionApprovedPayload) error
}

// LogNotifier is the default gateway while no chat-platform transport is
// wired. It records payloads so operators and tests can inspect delivery.
type LogNotifier struct {
	mu        sync.Mutex
	logger    *slog.Logger
	delivered []PromotionApprovedPayload
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyPromotionApproved(_ context.Context, payload PromotionApprovedPayload) error {
	n.mu.Lock()
	n.delivered = append(n.delivered, payload)
	n.mu.Unlock()

	n.logger.Info("promotion approval notification",
		"event", "notify_promotion_approved",
		"module", "internal/platform/notify",
		"layer", "platform",
		"member_id", payload.MemberID,
		"target_role", payload.TargetRole,
		"subject_id", payload.SubjectID,
		"deadline_unix", payload.DeadlineUnix,
	)
	return nil
}

// Delivered returns a copy of payloads handed to the gateway.
func (n *LogNotifier) Delivered() []PromotionApprovedPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]PromotionApprovedPayload(nil), n.delivered...)
}
