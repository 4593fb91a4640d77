package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/governance-core/nomination-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/nomination-workflow/domain/errors"
	"concord/contexts/governance-core/nomination-workflow/ports"
	ledgerapp "concord/contexts/governance-core/vote-ledger/application"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	"concord/internal/shared/events"
)

type CreateNominationCommand struct {
	NominatorID       string
	NomineeID         string
	TargetRole        string
	Reason            string
	LinkedPromotionID string
}

type CastVoteCommand struct {
	NominationID string
	VoterID      string
	Kind         ledgerentities.VoteKind
	Reason       string
}

type CastVoteResult struct {
	Vote  ledgerentities.Vote
	Tally ledgerentities.Tally
}

type FinalizeCommand struct {
	NominationID string
	Approved     bool
}

type MarkProcessedCommand struct {
	NominationID string
	MessageRef   string
	ChannelRef   string
}

type NominationUseCase struct {
	Repo       ports.Repository
	Promotions ports.PromotionFinalizer
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Locks      *ledgerapp.SubjectLocks
	Logger     *slog.Logger
}

func (uc NominationUseCase) Create(ctx context.Context, cmd CreateNominationCommand) (entities.Nomination, error) {
	if strings.TrimSpace(cmd.NominatorID) == "" ||
		strings.TrimSpace(cmd.NomineeID) == "" ||
		strings.TrimSpace(cmd.TargetRole) == "" {
		return entities.Nomination{}, domainerrors.ErrInvalidNominationInput
	}

	now := uc.now()
	nominationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Nomination{}, err
	}
	nomination := entities.Nomination{
		NominationID:      nominationID,
		NominatorID:       strings.TrimSpace(cmd.NominatorID),
		NomineeID:         strings.TrimSpace(cmd.NomineeID),
		TargetRole:        strings.TrimSpace(cmd.TargetRole),
		Reason:            strings.TrimSpace(cmd.Reason),
		Status:            entities.StatusPending,
		LinkedPromotionID: strings.TrimSpace(cmd.LinkedPromotionID),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.Repo.SaveNomination(ctx, nomination); err != nil {
		return entities.Nomination{}, err
	}
	if err := uc.appendEvent(ctx, "nomination.created", nomination, now, nil); err != nil {
		return entities.Nomination{}, err
	}

	resolveLogger(uc.Logger).Info("nomination created",
		"event", "nomination_created",
		"module", "governance-core/nomination-workflow",
		"layer", "application",
		"nomination_id", nomination.NominationID,
		"nominee_id", nomination.NomineeID,
		"target_role", nomination.TargetRole,
	)
	return nomination, nil
}

// CastVote records an approve/reject vote. Switching is allowed until
// finalization; the cached tally adjusts by the ledger delta under the
// subject lock, and the terminal-status check repeats there so a cast racing
// a finalize never lands on a settled nomination.
func (uc NominationUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	nomination, err := uc.Repo.GetNomination(ctx, cmd.NominationID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if nomination.Status.Terminal() {
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
		SubjectKind:    ledgerentities.SubjectKindNomination,
		SubjectID:      nomination.NominationID,
		AuthorID:       nomination.NominatorID,
		VoterID:        cmd.VoterID,
		Kind:           cmd.Kind,
		Reason:         cmd.Reason,
		ForbidSelfVote: true,
		Guard: func(ctx context.Context) error {
			current, err := uc.Repo.GetNomination(ctx, nomination.NominationID)
			if err != nil {
				return err
			}
			if current.Status.Terminal() {
				return domainerrors.ErrInvalidState
			}
			return nil
		},
	}, func(ctx context.Context, _ ledgerentities.Vote, delta ledgerentities.TallyDelta) error {
		tally, err := uc.Repo.AdjustTally(ctx, nomination.NominationID, delta)
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

// Finalize applies the outcome the external poller computed. A second call on
// a terminal nomination returns ErrInvalidState with no repeated side
// effects. If the nomination decides a promotion portfolio, the outcome
// cascades there with the same approved flag.
func (uc NominationUseCase) Finalize(ctx context.Context, cmd FinalizeCommand) (entities.Nomination, error) {
	nomination, err := uc.Repo.GetNomination(ctx, cmd.NominationID)
	if err != nil {
		return entities.Nomination{}, err
	}

	unlock := uc.Locks.Lock(nomination.NominationID)
	defer unlock()

	target := entities.StatusRejected
	if cmd.Approved {
		target = entities.StatusApproved
	}

	now := uc.now()
	won, err := uc.Repo.TransitionStatus(ctx, nomination.NominationID, entities.StatusPending, target, now)
	if err != nil {
		return entities.Nomination{}, err
	}
	if !won {
		return entities.Nomination{}, domainerrors.ErrInvalidState
	}

	if nomination.LinkedPromotionID != "" && uc.Promotions != nil {
		if err := uc.Promotions.FinalizePromotion(ctx, nomination.LinkedPromotionID, cmd.Approved); err != nil {
			// The nomination is already terminal; a cascade conflict means the
			// promotion was finalized through its own path first.
			resolveLogger(uc.Logger).Warn("promotion cascade skipped",
				"event", "nomination_promotion_cascade_skipped",
				"module", "governance-core/nomination-workflow",
				"layer", "application",
				"nomination_id", nomination.NominationID,
				"promotion_id", nomination.LinkedPromotionID,
				"error", err.Error(),
			)
			if !errors.Is(err, domainerrors.ErrInvalidState) {
				return entities.Nomination{}, err
			}
		}
	}

	if err := uc.appendEvent(ctx, "nomination.finalized", nomination, now, map[string]any{
		"approved": cmd.Approved,
	}); err != nil {
		return entities.Nomination{}, err
	}

	resolveLogger(uc.Logger).Info("nomination finalized",
		"event", "nomination_finalized",
		"module", "governance-core/nomination-workflow",
		"layer", "application",
		"nomination_id", nomination.NominationID,
		"approved", cmd.Approved,
	)
	return uc.Repo.GetNomination(ctx, nomination.NominationID)
}

// MarkProcessed records the collaborator's rendered prompt references so the
// nomination is not re-processed on the next poll.
func (uc NominationUseCase) MarkProcessed(ctx context.Context, cmd MarkProcessedCommand) error {
	if strings.TrimSpace(cmd.NominationID) == "" || strings.TrimSpace(cmd.MessageRef) == "" {
		return domainerrors.ErrInvalidNominationInput
	}
	return uc.Repo.SetProcessedMarker(ctx,
		strings.TrimSpace(cmd.NominationID),
		strings.TrimSpace(cmd.MessageRef),
		strings.TrimSpace(cmd.ChannelRef),
		uc.now(),
	)
}

func (uc NominationUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	nomination entities.Nomination,
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
		"nomination_id": nomination.NominationID,
		"nominee_id":    nomination.NomineeID,
		"target_role":   nomination.TargetRole,
	}
	for key, value := range metadata {
		payload[key] = value
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceModule:   "governance-core/nomination-workflow",
		OccurredAtUTC:  occurredAt,
		SubjectKind:    string(ledgerentities.SubjectKindNomination),
		SubjectID:      nomination.NominationID,
		PayloadVersion: 1,
		Payload:        payload,
	})
}

func (uc NominationUseCase) now() time.Time {
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
