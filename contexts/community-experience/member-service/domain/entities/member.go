package entities

import "time"

// GuildAffiliation is the optional guild-scoped profile of a member.
type GuildAffiliation struct {
	GuildName       string
	Archetype       string
	Tier            int
	QuestsCompleted int
	LastActiveAt    time.Time
}

// Member is a stable external identity with a running point balance.
// Created on first interaction, mutated by awards and quest completions,
// never deleted.
type Member struct {
	MemberID    string
	DisplayName string
	Points      int
	Guild       *GuildAffiliation
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PointsLog is the append-only record of a single award.
type PointsLog struct {
	LogID     string
	MemberID  string
	Delta     int
	Reason    string
	CreatedAt time.Time
}

type LeaderboardEntry struct {
	MemberID    string
	DisplayName string
	Points      int
	Rank        int
}

type Stats struct {
	TotalMembers    int
	TotalPoints     int
	QuestsCompleted int
}
