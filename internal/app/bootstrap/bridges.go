package bootstrap

import (
	"context"
	"errors"

	memberapp "concord/contexts/community-experience/member-service/application"
	membererrors "concord/contexts/community-experience/member-service/domain/errors"
	nominationerrors "concord/contexts/governance-core/nomination-workflow/domain/errors"
	promotioncommands "concord/contexts/governance-core/promotion-workflow/application/commands"
	promotionerrors "concord/contexts/governance-core/promotion-workflow/domain/errors"
)

// Cross-context calls go through these adapters so each governance module
// keeps its own port vocabulary instead of importing the member service.

type pointsAwarder struct {
	members memberapp.Service
}

func (a pointsAwarder) AwardPoints(ctx context.Context, memberID string, delta int, reason string) error {
	_, err := a.members.AwardPoints(ctx, memberID, delta, reason)
	return err
}

type questCompleter struct {
	members memberapp.Service
}

func (a questCompleter) RecordQuestCompletion(ctx context.Context, memberID string, points int) error {
	_, err := a.members.RecordQuestCompletion(ctx, memberID, points, "quest completion")
	return err
}

type roleChanger struct {
	members memberapp.Service
}

func (a roleChanger) ApplyRoleChange(ctx context.Context, memberID string, guildName string, role string, tier int) error {
	_, err := a.members.ApplyRoleChange(ctx, memberID, guildName, role, tier)
	return err
}

type guildDirectory struct {
	members memberapp.Service
}

func (a guildDirectory) MemberGuild(ctx context.Context, memberID string) (string, bool, error) {
	member, err := a.members.Get(ctx, memberID)
	if errors.Is(err, membererrors.ErrMemberNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if member.Guild == nil {
		return "", false, nil
	}
	return member.Guild.GuildName, true, nil
}

// promotionCascade settles the portfolio linked to a finalized nomination.
// A portfolio that was already settled through its own path surfaces as the
// nomination's invalid-state error, which the caller treats as benign.
type promotionCascade struct {
	promotions promotioncommands.PromotionUseCase
}

func (a promotionCascade) FinalizePromotion(ctx context.Context, portfolioID string, approved bool) error {
	err := a.promotions.FinalizePromotion(ctx, portfolioID, approved)
	if err == nil {
		return nil
	}
	if errors.Is(err, promotionerrors.ErrInvalidState) || errors.Is(err, promotionerrors.ErrPortfolioNotFound) {
		return nominationerrors.ErrInvalidState
	}
	return err
}
