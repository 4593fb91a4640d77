package queries

import (
	"context"
	"strings"
	"time"

	"concord/contexts/governance-core/contribution-workflow/domain/entities"
	"concord/contexts/governance-core/contribution-workflow/ports"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
)

type ContributionView struct {
	Contribution      entities.Contribution
	AuthorDisplayName string
}

type Eligibility struct {
	CanSubmit      bool
	CooldownEndsAt time.Time
}

type ListUseCase struct {
	Repo             ports.Repository
	Names            ports.DisplayNameResolver
	Clock            ports.Clock
	SubmissionWindow time.Duration
}

func (uc ListUseCase) List(ctx context.Context, filter ports.ListFilter) ([]ContributionView, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	items, err := uc.Repo.ListContributions(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]ContributionView, 0, len(items))
	for _, item := range items {
		views = append(views, ContributionView{
			Contribution:      item,
			AuthorDisplayName: uc.Names.ResolveDisplayName(ctx, item.AuthorID),
		})
	}
	return views, nil
}

func (uc ListUseCase) Get(ctx context.Context, contributionID string) (ContributionView, error) {
	contribution, err := uc.Repo.GetContribution(ctx, strings.TrimSpace(contributionID))
	if err != nil {
		return ContributionView{}, err
	}
	return ContributionView{
		Contribution:      contribution,
		AuthorDisplayName: uc.Names.ResolveDisplayName(ctx, contribution.AuthorID),
	}, nil
}

func (uc ListUseCase) Votes(ctx context.Context, contributionID string) ([]ledgerentities.Vote, error) {
	return uc.Repo.ListVotesBySubject(ctx, strings.TrimSpace(contributionID))
}

// CheckEligibility answers the pure-read submission gate used by callers
// before rendering a submission form.
func (uc ListUseCase) CheckEligibility(ctx context.Context, authorID string) (Eligibility, error) {
	window := uc.SubmissionWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	oldest, found, err := uc.Repo.OldestCreatedSince(ctx, strings.TrimSpace(authorID), now.Add(-window))
	if err != nil {
		return Eligibility{}, err
	}
	if found {
		return Eligibility{CanSubmit: false, CooldownEndsAt: oldest.Add(window)}, nil
	}
	return Eligibility{CanSubmit: true}, nil
}
