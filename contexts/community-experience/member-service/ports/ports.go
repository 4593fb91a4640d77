package ports

import (
	"context"
	"time"

	"concord/contexts/community-experience/member-service/domain/entities"
)

type Repository interface {
	// UpsertMember creates the member on first interaction or refreshes the
	// display name; it returns the stored row.
	UpsertMember(ctx context.Context, memberID string, displayName string, now time.Time) (entities.Member, error)
	GetMember(ctx context.Context, memberID string) (entities.Member, error)
	// IncrementPoints applies a single-statement atomic delta to the balance
	// and returns the updated member.
	IncrementPoints(ctx context.Context, memberID string, delta int, now time.Time) (entities.Member, error)
	AppendPointsLog(ctx context.Context, log entities.PointsLog) error
	// ApplyRoleChange replaces the guild affiliation role/tier pair.
	ApplyRoleChange(ctx context.Context, memberID string, guildName string, archetype string, tier int, now time.Time) (entities.Member, error)
	// RecordQuestCompletion increments quests_completed and touches
	// last_active in one update.
	RecordQuestCompletion(ctx context.Context, memberID string, now time.Time) (entities.Member, error)
	// CountGuildRole counts members affiliated with the guild/archetype pair;
	// promotion quorum sizing reads this.
	CountGuildRole(ctx context.Context, guildName string, archetype string) (int, error)
	ListLeaderboard(ctx context.Context, limit int, offset int) ([]entities.LeaderboardEntry, error)
	Stats(ctx context.Context) (entities.Stats, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
