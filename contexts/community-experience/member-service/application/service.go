package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/community-experience/member-service/domain/entities"
	domainerrors "concord/contexts/community-experience/member-service/domain/errors"
	"concord/contexts/community-experience/member-service/ports"
)

// UnknownDisplayName is returned when a member record is absent; listing
// joins fall back to it instead of failing.
const UnknownDisplayName = "Unknown"

type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (s Service) Ensure(ctx context.Context, memberID string, displayName string) (entities.Member, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return entities.Member{}, domainerrors.ErrInvalidMemberInput
	}
	return s.Repo.UpsertMember(ctx, memberID, strings.TrimSpace(displayName), s.now())
}

func (s Service) Get(ctx context.Context, memberID string) (entities.Member, error) {
	return s.Repo.GetMember(ctx, strings.TrimSpace(memberID))
}

// AwardPoints applies an atomic balance increment and appends the points log.
// Every workflow that pays out (contribution approval, quest review) routes
// through here so the lost-update discipline stays in one place.
func (s Service) AwardPoints(ctx context.Context, memberID string, delta int, reason string) (entities.Member, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" || delta == 0 {
		return entities.Member{}, domainerrors.ErrInvalidMemberInput
	}

	now := s.now()
	member, err := s.Repo.IncrementPoints(ctx, memberID, delta, now)
	if err != nil {
		return entities.Member{}, err
	}

	logID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Member{}, err
	}
	if err := s.Repo.AppendPointsLog(ctx, entities.PointsLog{
		LogID:     logID,
		MemberID:  memberID,
		Delta:     delta,
		Reason:    strings.TrimSpace(reason),
		CreatedAt: now,
	}); err != nil {
		return entities.Member{}, err
	}

	resolveLogger(s.Logger).Info("points awarded",
		"event", "member_points_awarded",
		"module", "community-experience/member-service",
		"layer", "application",
		"member_id", memberID,
		"delta", delta,
		"total_points", member.Points,
		"reason", strings.TrimSpace(reason),
	)
	return member, nil
}

// RecordQuestCompletion is the quest payout side effect: points, counter,
// last-active touch.
func (s Service) RecordQuestCompletion(ctx context.Context, memberID string, points int, reason string) (entities.Member, error) {
	member, err := s.AwardPoints(ctx, memberID, points, reason)
	if err != nil {
		return entities.Member{}, err
	}
	member, err = s.Repo.RecordQuestCompletion(ctx, strings.TrimSpace(memberID), s.now())
	if err != nil {
		return entities.Member{}, err
	}
	return member, nil
}

func (s Service) ApplyRoleChange(ctx context.Context, memberID string, guildName string, archetype string, tier int) (entities.Member, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" || strings.TrimSpace(archetype) == "" {
		return entities.Member{}, domainerrors.ErrInvalidMemberInput
	}
	member, err := s.Repo.ApplyRoleChange(ctx, memberID, strings.TrimSpace(guildName), strings.TrimSpace(archetype), tier, s.now())
	if err != nil {
		return entities.Member{}, err
	}
	resolveLogger(s.Logger).Info("role change applied",
		"event", "member_role_changed",
		"module", "community-experience/member-service",
		"layer", "application",
		"member_id", memberID,
		"guild", strings.TrimSpace(guildName),
		"archetype", strings.TrimSpace(archetype),
		"tier", tier,
	)
	return member, nil
}

// ResolveDisplayName never fails: absent members resolve to "Unknown".
func (s Service) ResolveDisplayName(ctx context.Context, memberID string) string {
	member, err := s.Repo.GetMember(ctx, strings.TrimSpace(memberID))
	if err != nil || strings.TrimSpace(member.DisplayName) == "" {
		return UnknownDisplayName
	}
	return member.DisplayName
}

// EligibleVoterCount sizes the promotion quorum from the guild/role
// directory.
func (s Service) EligibleVoterCount(ctx context.Context, guildName string, archetype string) (int, error) {
	return s.Repo.CountGuildRole(ctx, strings.TrimSpace(guildName), strings.TrimSpace(archetype))
}

func (s Service) Leaderboard(ctx context.Context, limit int, offset int) ([]entities.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListLeaderboard(ctx, limit, offset)
}

func (s Service) Stats(ctx context.Context) (entities.Stats, error) {
	return s.Repo.Stats(ctx)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
