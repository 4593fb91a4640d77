package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/governance-core/promotion-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/promotion-workflow/domain/errors"
	"concord/contexts/governance-core/promotion-workflow/ports"
	ledgerapp "concord/contexts/governance-core/vote-ledger/application"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	"concord/internal/platform/notify"
	"concord/internal/shared/events"
)

type CreatePortfolioCommand struct {
	MemberID     string
	Handle       string
	GuildName    string
	CurrentRole  string
	TargetRole   string
	TargetTier   int
	PortfolioURL string
	Summary      string
}

type UpdateDraftCommand struct {
	PortfolioID  string
	MemberID     string
	Handle       string
	PortfolioURL string
	Summary      string
}

type SubmitCommand struct {
	PortfolioID string
	MemberID    string
}

type ReviewCommand struct {
	PortfolioID string
	ReviewerID  string
	Action      entities.ReviewAction
	Reason      string
}

type CastVoteCommand struct {
	PortfolioID string
	VoterID     string
	Kind        ledgerentities.VoteKind
	Reason      string
}

type CastVoteResult struct {
	Vote  ledgerentities.Vote
	Tally ledgerentities.Tally
}

type AttachScoreCommand struct {
	PortfolioID string
	Score       int
	Feedback    string
}

type FinalizeCommand struct {
	PortfolioID string
	Approved    bool
}

type PromotionUseCase struct {
	Repo     ports.Repository
	Members  ports.RoleChanger
	Notifier notify.Notifier
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Locks    *ledgerapp.SubjectLocks

	// VotingWindow is how long the community vote stays open after reviewer
	// approval. ResubmitCooldown blocks a new portfolio after a rejection.
	// ForbidSelfVote is a policy flag and defaults to off.
	// PortfolioBaseURL builds the notification link for portfolios that carry
	// no URL of their own.
	VotingWindow     time.Duration
	ResubmitCooldown time.Duration
	ForbidSelfVote   bool
	PortfolioBaseURL string

	Logger *slog.Logger
}

// Create opens a draft portfolio. A member holds at most one draft or
// submitted portfolio at a time, and a rejection blocks new portfolios for
// the cooldown period.
func (uc PromotionUseCase) Create(ctx context.Context, cmd CreatePortfolioCommand) (entities.Portfolio, error) {
	if strings.TrimSpace(cmd.MemberID) == "" || strings.TrimSpace(cmd.TargetRole) == "" {
		return entities.Portfolio{}, domainerrors.ErrInvalidPortfolioInput
	}

	// The active-portfolio and cooldown checks plus the save form one
	// critical section per member.
	memberID := strings.TrimSpace(cmd.MemberID)
	unlock := uc.Locks.Lock("member:" + memberID)
	defer unlock()

	if _, exists, err := uc.Repo.GetActivePortfolio(ctx, memberID); err != nil {
		return entities.Portfolio{}, err
	} else if exists {
		return entities.Portfolio{}, domainerrors.ErrActivePortfolioExists
	}

	now := uc.now()
	if days, blocked, err := uc.cooldownRemaining(ctx, memberID, now); err != nil {
		return entities.Portfolio{}, err
	} else if blocked {
		return entities.Portfolio{}, domainerrors.ResubmitCooldownError{DaysRemaining: days}
	}

	portfolioID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Portfolio{}, err
	}
	portfolio := entities.Portfolio{
		PortfolioID:  portfolioID,
		MemberID:     memberID,
		Handle:       strings.TrimSpace(cmd.Handle),
		GuildName:    strings.TrimSpace(cmd.GuildName),
		CurrentRole:  strings.TrimSpace(cmd.CurrentRole),
		TargetRole:   strings.TrimSpace(cmd.TargetRole),
		TargetTier:   cmd.TargetTier,
		PortfolioURL: strings.TrimSpace(cmd.PortfolioURL),
		Summary:      strings.TrimSpace(cmd.Summary),
		Status:       entities.StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Repo.SavePortfolio(ctx, portfolio); err != nil {
		return entities.Portfolio{}, err
	}

	resolveLogger(uc.Logger).Info("portfolio created",
		"event", "portfolio_created",
		"module", "governance-core/promotion-workflow",
		"layer", "application",
		"portfolio_id", portfolio.PortfolioID,
		"member_id", portfolio.MemberID,
		"target_role", portfolio.TargetRole,
	)
	return portfolio, nil
}

// UpdateDraft lets the owner refine the portfolio before submitting.
func (uc PromotionUseCase) UpdateDraft(ctx context.Context, cmd UpdateDraftCommand) (entities.Portfolio, error) {
	portfolio, err := uc.Repo.GetPortfolio(ctx, cmd.PortfolioID)
	if err != nil {
		return entities.Portfolio{}, err
	}
	if portfolio.MemberID != strings.TrimSpace(cmd.MemberID) {
		return entities.Portfolio{}, domainerrors.ErrInvalidPortfolioInput
	}
	if portfolio.Status != entities.StatusDraft {
		return entities.Portfolio{}, domainerrors.ErrInvalidState
	}

	if handle := strings.TrimSpace(cmd.Handle); handle != "" {
		portfolio.Handle = handle
	}
	if url := strings.TrimSpace(cmd.PortfolioURL); url != "" {
		portfolio.PortfolioURL = url
	}
	if summary := strings.TrimSpace(cmd.Summary); summary != "" {
		portfolio.Summary = summary
	}
	portfolio.UpdatedAt = uc.now()
	if err := uc.Repo.SavePortfolio(ctx, portfolio); err != nil {
		return entities.Portfolio{}, err
	}
	return portfolio, nil
}

// Submit hands the draft to a reviewer. A non-empty handle is the one
// required field.
func (uc PromotionUseCase) Submit(ctx context.Context, cmd SubmitCommand) (entities.Portfolio, error) {
	portfolio, err := uc.Repo.GetPortfolio(ctx, cmd.PortfolioID)
	if err != nil {
		return entities.Portfolio{}, err
	}
	if portfolio.MemberID != strings.TrimSpace(cmd.MemberID) {
		return entities.Portfolio{}, domainerrors.ErrInvalidPortfolioInput
	}
	if strings.TrimSpace(portfolio.Handle) == "" {
		return entities.Portfolio{}, domainerrors.ErrInvalidPortfolioInput
	}

	now := uc.now()
	won, err := uc.Repo.TransitionStatus(ctx, portfolio.PortfolioID,
		entities.StatusDraft, entities.StatusSubmitted, ports.StatusPatch{}, now)
	if err != nil {
		return entities.Portfolio{}, err
	}
	if !won {
		return entities.Portfolio{}, domainerrors.ErrInvalidState
	}
	return uc.Repo.GetPortfolio(ctx, portfolio.PortfolioID)
}

// Review applies a reviewer decision to a submitted portfolio. Approval opens
// the community vote and sends a best-effort notification; delivery failure
// is logged and never rolls the transition back.
func (uc PromotionUseCase) Review(ctx context.Context, cmd ReviewCommand) (entities.Portfolio, error) {
	if strings.TrimSpace(cmd.ReviewerID) == "" || !cmd.Action.Valid() {
		return entities.Portfolio{}, domainerrors.ErrInvalidPortfolioInput
	}
	portfolio, err := uc.Repo.GetPortfolio(ctx, cmd.PortfolioID)
	if err != nil {
		return entities.Portfolio{}, err
	}

	now := uc.now()
	patch := ports.StatusPatch{
		ReviewerID:     strings.TrimSpace(cmd.ReviewerID),
		ReviewFeedback: strings.TrimSpace(cmd.Reason),
	}

	var target entities.Status
	switch cmd.Action {
	case entities.ReviewApprove:
		deadline := now.Add(uc.votingWindow())
		patch.VotingDeadline = &deadline
		target = entities.StatusPendingVote
	case entities.ReviewReject:
		stamp := now
		patch.ReviewedAt = &stamp
		target = entities.StatusRejected
	case entities.ReviewRequestChanges:
		target = entities.StatusDraft
	}

	won, err := uc.Repo.TransitionStatus(ctx, portfolio.PortfolioID,
		entities.StatusSubmitted, target, patch, now)
	if err != nil {
		return entities.Portfolio{}, err
	}
	if !won {
		return entities.Portfolio{}, domainerrors.ErrInvalidState
	}

	if cmd.Action == entities.ReviewApprove && uc.Notifier != nil {
		payload := notify.PromotionApprovedPayload{
			MemberID:     portfolio.MemberID,
			TargetRole:   portfolio.TargetRole,
			PortfolioURL: uc.portfolioLink(portfolio),
			DeadlineUnix: patch.VotingDeadline.Unix(),
			SubjectID:    portfolio.PortfolioID,
		}
		if err := uc.Notifier.NotifyPromotionApproved(ctx, payload); err != nil {
			resolveLogger(uc.Logger).Warn("promotion approval notification failed",
				"event", "portfolio_notify_failed",
				"module", "governance-core/promotion-workflow",
				"layer", "application",
				"portfolio_id", portfolio.PortfolioID,
				"error", err.Error(),
			)
		}
	}

	resolveLogger(uc.Logger).Info("portfolio reviewed",
		"event", "portfolio_reviewed",
		"module", "governance-core/promotion-workflow",
		"layer", "application",
		"portfolio_id", portfolio.PortfolioID,
		"action", string(cmd.Action),
		"reviewer_id", strings.TrimSpace(cmd.ReviewerID),
	)
	return uc.Repo.GetPortfolio(ctx, portfolio.PortfolioID)
}

// CastVote records a community vote while the portfolio is pending. There is
// no self-vote guard unless the policy flag turns one on. The status check
// repeats inside the subject lock so a cast racing a finalize never lands on
// a settled portfolio.
func (uc PromotionUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	portfolio, err := uc.Repo.GetPortfolio(ctx, cmd.PortfolioID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if portfolio.Status != entities.StatusPendingVote {
		return CastVoteResult{}, domainerrors.ErrInvalidState
	}

	ledger := ledgerapp.Ledger{
		Votes:  uc.Repo,
		Clock:  uc.Clock,
		IDGen:  uc.IDGen,
		Locks:  uc.Locks,
		Logger: uc.Logger,
	}

	result := CastVoteResult{}
	vote, _, err := ledger.Cast(ctx, ledgerapp.CastRequest{
		SubjectKind:    ledgerentities.SubjectKindPromotion,
		SubjectID:      portfolio.PortfolioID,
		AuthorID:       portfolio.MemberID,
		VoterID:        cmd.VoterID,
		Kind:           cmd.Kind,
		Reason:         cmd.Reason,
		ForbidSelfVote: uc.ForbidSelfVote,
		Guard: func(ctx context.Context) error {
			current, err := uc.Repo.GetPortfolio(ctx, portfolio.PortfolioID)
			if err != nil {
				return err
			}
			if current.Status != entities.StatusPendingVote {
				return domainerrors.ErrInvalidState
			}
			return nil
		},
	}, func(ctx context.Context, _ ledgerentities.Vote, delta ledgerentities.TallyDelta) error {
		tally, err := uc.Repo.AdjustTally(ctx, portfolio.PortfolioID, delta)
		if err != nil {
			return err
		}
		result.Tally = tally
		return nil
	})
	if err != nil {
		return CastVoteResult{}, err
	}
	result.Vote = vote
	return result, nil
}

// AttachScore stores the external scorer's number and feedback verbatim.
func (uc PromotionUseCase) AttachScore(ctx context.Context, cmd AttachScoreCommand) error {
	if strings.TrimSpace(cmd.PortfolioID) == "" {
		return domainerrors.ErrInvalidPortfolioInput
	}
	return uc.Repo.SetScore(ctx,
		strings.TrimSpace(cmd.PortfolioID),
		cmd.Score,
		strings.TrimSpace(cmd.Feedback),
		uc.now(),
	)
}

// Finalize closes the community vote. A promoted portfolio appends one
// history record and applies the role change on the member; a second call
// observes the terminal status and returns ErrInvalidState.
func (uc PromotionUseCase) Finalize(ctx context.Context, cmd FinalizeCommand) (entities.Portfolio, error) {
	portfolio, err := uc.Repo.GetPortfolio(ctx, cmd.PortfolioID)
	if err != nil {
		return entities.Portfolio{}, err
	}

	unlock := uc.Locks.Lock(portfolio.PortfolioID)
	defer unlock()

	now := uc.now()
	stamp := now
	target := entities.StatusRejected
	if cmd.Approved {
		target = entities.StatusPromoted
	}
	won, err := uc.Repo.TransitionStatus(ctx, portfolio.PortfolioID,
		entities.StatusPendingVote, target, ports.StatusPatch{ReviewedAt: &stamp}, now)
	if err != nil {
		return entities.Portfolio{}, err
	}
	if !won {
		return entities.Portfolio{}, domainerrors.ErrInvalidState
	}

	if cmd.Approved {
		historyID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Portfolio{}, err
		}
		if err := uc.Repo.AppendHistory(ctx, entities.PromotionHistory{
			HistoryID:   historyID,
			MemberID:    portfolio.MemberID,
			PortfolioID: portfolio.PortfolioID,
			FromRole:    portfolio.CurrentRole,
			ToRole:      portfolio.TargetRole,
			PromotedAt:  now,
		}); err != nil {
			return entities.Portfolio{}, err
		}
		if uc.Members != nil {
			if err := uc.Members.ApplyRoleChange(ctx, portfolio.MemberID, portfolio.GuildName, portfolio.TargetRole, portfolio.TargetTier); err != nil {
				return entities.Portfolio{}, err
			}
		}
	}

	if err := uc.appendEvent(ctx, "promotion.finalized", portfolio, now, map[string]any{
		"approved": cmd.Approved,
	}); err != nil {
		return entities.Portfolio{}, err
	}

	resolveLogger(uc.Logger).Info("portfolio finalized",
		"event", "portfolio_finalized",
		"module", "governance-core/promotion-workflow",
		"layer", "application",
		"portfolio_id", portfolio.PortfolioID,
		"member_id", portfolio.MemberID,
		"approved", cmd.Approved,
	)
	return uc.Repo.GetPortfolio(ctx, portfolio.PortfolioID)
}

// FinalizePromotion satisfies the cascade port used by linked nominations.
func (uc PromotionUseCase) FinalizePromotion(ctx context.Context, portfolioID string, approved bool) error {
	_, err := uc.Finalize(ctx, FinalizeCommand{PortfolioID: portfolioID, Approved: approved})
	return err
}

// cooldownRemaining reports the whole days, rounded up, left on the member's
// post-rejection cooldown.
func (uc PromotionUseCase) cooldownRemaining(ctx context.Context, memberID string, now time.Time) (int, bool, error) {
	rejected, found, err := uc.Repo.LatestRejected(ctx, memberID)
	if err != nil {
		return 0, false, err
	}
	if !found || rejected.ReviewedAt == nil {
		return 0, false, nil
	}
	reopensAt := rejected.ReviewedAt.Add(uc.resubmitCooldown())
	if !now.Before(reopensAt) {
		return 0, false, nil
	}
	remaining := reopensAt.Sub(now)
	days := int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
	return days, true, nil
}

func (uc PromotionUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	portfolio entities.Portfolio,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"portfolio_id": portfolio.PortfolioID,
		"member_id":    portfolio.MemberID,
		"target_role":  portfolio.TargetRole,
	}
	for key, value := range metadata {
		payload[key] = value
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceModule:   "governance-core/promotion-workflow",
		OccurredAtUTC:  occurredAt,
		SubjectKind:    string(ledgerentities.SubjectKindPromotion),
		SubjectID:      portfolio.PortfolioID,
		PayloadVersion: 1,
		Payload:        payload,
	})
}

// portfolioLink prefers the author's own URL and falls back to the canonical
// address built from the configured base.
func (uc PromotionUseCase) portfolioLink(portfolio entities.Portfolio) string {
	if portfolio.PortfolioURL != "" {
		return portfolio.PortfolioURL
	}
	base := strings.TrimRight(strings.TrimSpace(uc.PortfolioBaseURL), "/")
	if base == "" {
		return ""
	}
	return base + "/" + portfolio.PortfolioID
}

func (uc PromotionUseCase) votingWindow() time.Duration {
	if uc.VotingWindow > 0 {
		return uc.VotingWindow
	}
	return 24 * time.Hour
}

func (uc PromotionUseCase) resubmitCooldown() time.Duration {
	if uc.ResubmitCooldown > 0 {
		return uc.ResubmitCooldown
	}
	return 7 * 24 * time.Hour
}

func (uc PromotionUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
