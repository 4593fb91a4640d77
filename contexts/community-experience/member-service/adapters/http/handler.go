package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"concord/contexts/community-experience/member-service/application"
	"concord/contexts/community-experience/member-service/domain/entities"
	httptransport "concord/contexts/community-experience/member-service/transport/http"
)

type Handler struct {
	Members application.Service
	Logger  *slog.Logger
}

func (h Handler) EnsureMemberHandler(ctx context.Context, memberID string, req httptransport.EnsureMemberRequest) (httptransport.MemberResponse, error) {
	member, err := h.Members.Ensure(ctx, memberID, req.DisplayName)
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return toMemberResponse(member), nil
}

func (h Handler) GetMemberHandler(ctx context.Context, memberID string) (httptransport.MemberResponse, error) {
	member, err := h.Members.Get(ctx, memberID)
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return toMemberResponse(member), nil
}

func (h Handler) LeaderboardHandler(ctx context.Context, limit int, offset int) (httptransport.LeaderboardResponse, error) {
	entries, err := h.Members.Leaderboard(ctx, limit, offset)
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}
	items := make([]httptransport.LeaderboardItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.LeaderboardItem{
			MemberID:    entry.MemberID,
			DisplayName: entry.DisplayName,
			Points:      entry.Points,
			Rank:        entry.Rank,
		})
	}
	return httptransport.LeaderboardResponse{Items: items}, nil
}

func (h Handler) StatsHandler(ctx context.Context) (httptransport.StatsResponse, error) {
	stats, err := h.Members.Stats(ctx)
	if err != nil {
		return httptransport.StatsResponse{}, err
	}
	return httptransport.StatsResponse{
		TotalMembers:    stats.TotalMembers,
		TotalPoints:     stats.TotalPoints,
		QuestsCompleted: stats.QuestsCompleted,
	}, nil
}

func toMemberResponse(member entities.Member) httptransport.MemberResponse {
	resp := httptransport.MemberResponse{
		MemberID:    member.MemberID,
		DisplayName: member.DisplayName,
		Points:      member.Points,
	}
	if member.Guild != nil {
		resp.Guild = &httptransport.GuildResponse{
			GuildName:       member.Guild.GuildName,
			Archetype:       member.Guild.Archetype,
			Tier:            member.Guild.Tier,
			QuestsCompleted: member.Guild.QuestsCompleted,
			LastActiveAt:    member.Guild.LastActiveAt.Format(time.RFC3339),
		}
	}
	return resp
}
