package queries

import (
	"context"
	"strings"

	"concord/contexts/governance-core/nomination-workflow/domain/entities"
	"concord/contexts/governance-core/nomination-workflow/ports"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
)

type Readiness struct {
	Ready    bool
	Approved bool
	Tally    ledgerentities.Tally
}

type ReadinessUseCase struct {
	Repo         ports.Repository
	Quorum       int
	ApprovalRate float64
}

// CheckReady reports whether the quorum is met and, if so, whether the
// approval rate reaches the supermajority bar. Exactly at the bar counts as
// approved (3 of 5 at rate 0.6 passes).
func (uc ReadinessUseCase) CheckReady(ctx context.Context, nominationID string) (Readiness, error) {
	nomination, err := uc.Repo.GetNomination(ctx, strings.TrimSpace(nominationID))
	if err != nil {
		return Readiness{}, err
	}

	tally := nomination.Tally
	result := Readiness{Tally: tally}
	if tally.Total() < uc.quorum() {
		return result, nil
	}
	result.Ready = true
	result.Approved = float64(tally.Approve)/float64(tally.Total()) >= uc.approvalRate()
	return result, nil
}

func (uc ReadinessUseCase) Get(ctx context.Context, nominationID string) (entities.Nomination, error) {
	return uc.Repo.GetNomination(ctx, strings.TrimSpace(nominationID))
}

func (uc ReadinessUseCase) ListPending(ctx context.Context, onlyUnprocessed bool, limit int, offset int) ([]entities.Nomination, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.Repo.ListPending(ctx, onlyUnprocessed, limit, offset)
}

func (uc ReadinessUseCase) Votes(ctx context.Context, nominationID string) ([]ledgerentities.Vote, error) {
	return uc.Repo.ListVotesBySubject(ctx, strings.TrimSpace(nominationID))
}

func (uc ReadinessUseCase) quorum() int {
	if uc.Quorum <= 0 {
		return 5
	}
	return uc.Quorum
}

func (uc ReadinessUseCase) approvalRate() float64 {
	if uc.ApprovalRate <= 0 {
		return 0.6
	}
	return uc.ApprovalRate
}
