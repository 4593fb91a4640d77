package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type EnsureMemberRequest struct {
	DisplayName string `json:"display_name"`
}

type GuildResponse struct {
	GuildName       string `json:"guild_name"`
	Archetype       string `json:"archetype"`
	Tier            int    `json:"tier"`
	QuestsCompleted int    `json:"quests_completed"`
	LastActiveAt    string `json:"last_active_at"`
}

type MemberResponse struct {
	MemberID    string         `json:"member_id"`
	DisplayName string         `json:"display_name"`
	Points      int            `json:"points"`
	Guild       *GuildResponse `json:"guild,omitempty"`
}

type LeaderboardItem struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
	Rank        int    `json:"rank"`
}

type LeaderboardResponse struct {
	Items []LeaderboardItem `json:"items"`
}

type StatsResponse struct {
	TotalMembers    int `json:"total_members"`
	TotalPoints     int `json:"total_points"`
	QuestsCompleted int `json:"quests_completed"`
}
