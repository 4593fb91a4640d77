package queries

import (
	"context"
	"strings"
	"time"

	"concord/contexts/governance-core/promotion-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/promotion-workflow/domain/errors"
	"concord/contexts/governance-core/promotion-workflow/ports"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
)

type Readiness struct {
	Ready    bool
	Approved bool
	Tally    ledgerentities.Tally
}

type Resubmission struct {
	Allowed       bool
	DaysRemaining int
}

type ReadinessUseCase struct {
	Repo             ports.Repository
	Directory        ports.VoterDirectory
	Clock            ports.Clock
	ResubmitCooldown time.Duration
}

// CheckReady reports whether the vote can close: the deadline has passed, or
// every eligible voter has spoken. A tie is not an approval.
func (uc ReadinessUseCase) CheckReady(ctx context.Context, portfolioID string) (Readiness, error) {
	portfolio, err := uc.Repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return Readiness{}, err
	}
	if portfolio.Status != entities.StatusPendingVote {
		return Readiness{}, domainerrors.ErrInvalidState
	}

	result := Readiness{Tally: portfolio.Tally}
	now := uc.now()
	if portfolio.VotingDeadline != nil && !now.Before(*portfolio.VotingDeadline) {
		result.Ready = true
	} else if uc.Directory != nil {
		eligible, err := uc.Directory.EligibleVoterCount(ctx, portfolio.GuildName, portfolio.CurrentRole)
		if err != nil {
			return Readiness{}, err
		}
		if eligible > 0 && portfolio.Tally.Total() >= eligible {
			result.Ready = true
		}
	}
	if result.Ready {
		result.Approved = portfolio.Tally.Approve > portfolio.Tally.Reject
	}
	return result, nil
}

// CanResubmit reports whether the member may open a new portfolio after a
// rejection, and the whole days left on the cooldown if not.
func (uc ReadinessUseCase) CanResubmit(ctx context.Context, memberID string) (Resubmission, error) {
	rejected, found, err := uc.Repo.LatestRejected(ctx, strings.TrimSpace(memberID))
	if err != nil {
		return Resubmission{}, err
	}
	if !found || rejected.ReviewedAt == nil {
		return Resubmission{Allowed: true}, nil
	}
	reopensAt := rejected.ReviewedAt.Add(uc.resubmitCooldown())
	now := uc.now()
	if !now.Before(reopensAt) {
		return Resubmission{Allowed: true}, nil
	}
	remaining := reopensAt.Sub(now)
	days := int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
	return Resubmission{Allowed: false, DaysRemaining: days}, nil
}

func (uc ReadinessUseCase) Get(ctx context.Context, portfolioID string) (entities.Portfolio, error) {
	return uc.Repo.GetPortfolio(ctx, portfolioID)
}

func (uc ReadinessUseCase) History(ctx context.Context, memberID string) ([]entities.PromotionHistory, error) {
	return uc.Repo.ListHistory(ctx, strings.TrimSpace(memberID))
}

func (uc ReadinessUseCase) ListByStatus(ctx context.Context, status entities.Status, limit int, offset int) ([]entities.Portfolio, error) {
	return uc.Repo.ListByStatus(ctx, status, limit, offset)
}

func (uc ReadinessUseCase) Votes(ctx context.Context, portfolioID string) ([]ledgerentities.Vote, error) {
	return uc.Repo.ListVotesBySubject(ctx, strings.TrimSpace(portfolioID))
}

func (uc ReadinessUseCase) resubmitCooldown() time.Duration {
	if uc.ResubmitCooldown > 0 {
		return uc.ResubmitCooldown
	}
	return 7 * 24 * time.Hour
}

func (uc ReadinessUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
