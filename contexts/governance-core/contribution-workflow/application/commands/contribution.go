package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/governance-core/contribution-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/contribution-workflow/domain/errors"
	"concord/contexts/governance-core/contribution-workflow/ports"
	ledgerapp "concord/contexts/governance-core/vote-ledger/application"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	"concord/internal/shared/events"
)

type SubmitContributionCommand struct {
	AuthorID   string
	Title      string
	ContentURL string
	Category   string
}

type CastVoteCommand struct {
	ContributionID string
	VoterID        string
	Kind           ledgerentities.VoteKind
	Reason         string
}

type CastVoteResult struct {
	Vote         ledgerentities.Vote
	Tally        ledgerentities.Tally
	AutoApproved bool
}

type RejectContributionCommand struct {
	ContributionID string
	ModeratorID    string
	Reason         string
}

// ContributionUseCase orchestrates contribution submission, crowd voting with
// threshold auto-approval, and the manual moderation actions.
type ContributionUseCase struct {
	Repo             ports.Repository
	Points           ports.PointsAwarder
	Outbox           ports.OutboxWriter
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	Locks            *ledgerapp.SubjectLocks
	UpvoteThreshold  int
	ApprovalPoints   int
	SubmissionWindow time.Duration
	Logger           *slog.Logger
}

// Submit creates a Pending contribution, enforcing the rolling one-per-window
// rule per author. The window check and the save form one critical section
// per author.
func (uc ContributionUseCase) Submit(ctx context.Context, cmd SubmitContributionCommand) (entities.Contribution, error) {
	if strings.TrimSpace(cmd.AuthorID) == "" || strings.TrimSpace(cmd.Title) == "" {
		return entities.Contribution{}, domainerrors.ErrInvalidContributionInput
	}

	unlock := uc.Locks.Lock("author:" + strings.TrimSpace(cmd.AuthorID))
	defer unlock()

	now := uc.now()
	window := uc.submissionWindow()
	oldest, found, err := uc.Repo.OldestCreatedSince(ctx, cmd.AuthorID, now.Add(-window))
	if err != nil {
		return entities.Contribution{}, err
	}
	if found {
		return entities.Contribution{}, domainerrors.RateLimitedError{
			CooldownEndsAt: oldest.Add(window),
		}
	}

	contributionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Contribution{}, err
	}
	contribution := entities.Contribution{
		ContributionID: contributionID,
		AuthorID:       strings.TrimSpace(cmd.AuthorID),
		Title:          strings.TrimSpace(cmd.Title),
		ContentURL:     strings.TrimSpace(cmd.ContentURL),
		Category:       strings.TrimSpace(cmd.Category),
		Status:         entities.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.Repo.SaveContribution(ctx, contribution); err != nil {
		return entities.Contribution{}, err
	}
	if err := uc.appendEvent(ctx, "contribution.submitted", contribution, now, nil); err != nil {
		return entities.Contribution{}, err
	}

	resolveLogger(uc.Logger).Info("contribution submitted",
		"event", "contribution_submitted",
		"module", "governance-core/contribution-workflow",
		"layer", "application",
		"contribution_id", contribution.ContributionID,
		"author_id", contribution.AuthorID,
		"category", contribution.Category,
	)
	return contribution, nil
}

// CastVote records an upvote or downvote. The tally apply, the threshold
// check, and the one-time approval side effects all run under the subject
// lock so two racing upvotes cannot both transition or double-award.
func (uc ContributionUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	contribution, err := uc.Repo.GetContribution(ctx, cmd.ContributionID)
	if err != nil {
		return CastVoteResult{}, err
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
		SubjectKind:    ledgerentities.SubjectKindContribution,
		SubjectID:      contribution.ContributionID,
		AuthorID:       contribution.AuthorID,
		VoterID:        cmd.VoterID,
		Kind:           cmd.Kind,
		Reason:         cmd.Reason,
		ForbidSelfVote: true,
	}, func(ctx context.Context, vote ledgerentities.Vote, delta ledgerentities.TallyDelta) error {
		tally, err := uc.Repo.AdjustTally(ctx, contribution.ContributionID, delta)
		if err != nil {
			return err
		}
		result.Tally = tally
		if tally.Approve < uc.upvoteThreshold() {
			return nil
		}

		now := uc.now()
		won, err := uc.Repo.TransitionStatus(ctx,
			contribution.ContributionID,
			entities.StatusPending,
			entities.StatusApproved,
			&now,
			now,
		)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}

		result.AutoApproved = true
		if err := uc.Points.AwardPoints(ctx, contribution.AuthorID, uc.approvalPoints(), "contribution approved"); err != nil {
			return err
		}
		return uc.appendEvent(ctx, "contribution.approved", contribution, now, map[string]any{
			"upvotes": tally.Approve,
		})
	})
	if err != nil {
		return CastVoteResult{}, err
	}
	result.Vote = vote

	if result.AutoApproved {
		resolveLogger(uc.Logger).Info("contribution auto-approved",
			"event", "contribution_auto_approved",
			"module", "governance-core/contribution-workflow",
			"layer", "application",
			"contribution_id", contribution.ContributionID,
			"author_id", contribution.AuthorID,
			"upvotes", result.Tally.Approve,
		)
	}
	return result, nil
}

// Reject is the manual moderation path out of Pending.
func (uc ContributionUseCase) Reject(ctx context.Context, cmd RejectContributionCommand) error {
	if strings.TrimSpace(cmd.ContributionID) == "" {
		return domainerrors.ErrInvalidContributionInput
	}
	contribution, err := uc.Repo.GetContribution(ctx, cmd.ContributionID)
	if err != nil {
		return err
	}

	unlock := uc.Locks.Lock(contribution.ContributionID)
	defer unlock()

	now := uc.now()
	won, err := uc.Repo.TransitionStatus(ctx,
		contribution.ContributionID,
		entities.StatusPending,
		entities.StatusRejected,
		nil,
		now,
	)
	if err != nil {
		return err
	}
	if !won {
		return domainerrors.ErrInvalidState
	}
	return uc.appendEvent(ctx, "contribution.rejected", contribution, now, map[string]any{
		"moderator_id": strings.TrimSpace(cmd.ModeratorID),
		"reason":       strings.TrimSpace(cmd.Reason),
	})
}

// Feature flags an approved contribution; the flag is independent of the
// state machine.
func (uc ContributionUseCase) Feature(ctx context.Context, contributionID string, featured bool) error {
	contribution, err := uc.Repo.GetContribution(ctx, contributionID)
	if err != nil {
		return err
	}
	if contribution.Status != entities.StatusApproved {
		return domainerrors.ErrInvalidState
	}
	return uc.Repo.SetFeatured(ctx, contribution.ContributionID, featured, uc.now())
}

func (uc ContributionUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	contribution entities.Contribution,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"contribution_id": contribution.ContributionID,
		"author_id":       contribution.AuthorID,
		"category":        contribution.Category,
	}
	for key, value := range metadata {
		payload[key] = value
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceModule:   "governance-core/contribution-workflow",
		OccurredAtUTC:  occurredAt,
		SubjectKind:    string(ledgerentities.SubjectKindContribution),
		SubjectID:      contribution.ContributionID,
		PayloadVersion: 1,
		Payload:        payload,
	})
}

func (uc ContributionUseCase) upvoteThreshold() int {
	if uc.UpvoteThreshold <= 0 {
		return 3
	}
	return uc.UpvoteThreshold
}

func (uc ContributionUseCase) approvalPoints() int {
	if uc.ApprovalPoints <= 0 {
		return 10
	}
	return uc.ApprovalPoints
}

func (uc ContributionUseCase) submissionWindow() time.Duration {
	if uc.SubmissionWindow <= 0 {
		return 24 * time.Hour
	}
	return uc.SubmissionWindow
}

func (uc ContributionUseCase) now() time.Time {
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
