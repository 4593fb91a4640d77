package unit

import (
	"context"
	"errors"
	"testing"

	membersvc "concord/contexts/community-experience/member-service"
	membererrors "concord/contexts/community-experience/member-service/domain/errors"
	httptransport "concord/contexts/community-experience/member-service/transport/http"
)

func TestMemberEnsureAndPointsLifecycle(t *testing.T) {
	module := membersvc.NewInMemoryModule(nil)

	member, err := module.Handler.EnsureMemberHandler(context.Background(), "member-1", httptransport.EnsureMemberRequest{
		DisplayName: "Ada",
	})
	if err != nil {
		t.Fatalf("ensure member failed: %v", err)
	}
	if member.Points != 0 {
		t.Fatalf("expected fresh member to start at 0 points, got %d", member.Points)
	}

	if _, err := module.Service.AwardPoints(context.Background(), "member-1", 10, "contribution approved"); err != nil {
		t.Fatalf("award points failed: %v", err)
	}

	// Ensure is idempotent: re-registering must not reset the balance.
	member, err = module.Handler.EnsureMemberHandler(context.Background(), "member-1", httptransport.EnsureMemberRequest{
		DisplayName: "Ada L.",
	})
	if err != nil {
		t.Fatalf("re-ensure member failed: %v", err)
	}
	if member.Points != 10 {
		t.Fatalf("expected 10 points after re-ensure, got %d", member.Points)
	}
	if member.DisplayName != "Ada L." {
		t.Fatalf("expected display name update, got %q", member.DisplayName)
	}

	if _, err := module.Handler.GetMemberHandler(context.Background(), "member-404"); !errors.Is(err, membererrors.ErrMemberNotFound) {
		t.Fatalf("expected member not found, got %v", err)
	}
}

func TestMemberLeaderboardAndStats(t *testing.T) {
	module := membersvc.NewInMemoryModule(nil)
	ctx := context.Background()

	for _, seed := range []struct {
		id     string
		name   string
		points int
	}{
		{"member-1", "Ada", 30},
		{"member-2", "Grace", 50},
		{"member-3", "Edsger", 10},
	} {
		if _, err := module.Service.Ensure(ctx, seed.id, seed.name); err != nil {
			t.Fatalf("ensure %s failed: %v", seed.id, err)
		}
		if _, err := module.Service.AwardPoints(ctx, seed.id, seed.points, "seed"); err != nil {
			t.Fatalf("award %s failed: %v", seed.id, err)
		}
	}

	board, err := module.Handler.LeaderboardHandler(ctx, 2, 0)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(board.Items) != 2 {
		t.Fatalf("expected 2 leaderboard rows, got %d", len(board.Items))
	}
	if board.Items[0].MemberID != "member-2" || board.Items[0].Rank != 1 {
		t.Fatalf("expected member-2 at rank 1, got %s rank %d", board.Items[0].MemberID, board.Items[0].Rank)
	}
	if board.Items[1].MemberID != "member-1" || board.Items[1].Rank != 2 {
		t.Fatalf("expected member-1 at rank 2, got %s rank %d", board.Items[1].MemberID, board.Items[1].Rank)
	}

	stats, err := module.Handler.StatsHandler(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalMembers != 3 {
		t.Fatalf("expected 3 members, got %d", stats.TotalMembers)
	}
	if stats.TotalPoints != 90 {
		t.Fatalf("expected 90 total points, got %d", stats.TotalPoints)
	}
}

func TestMemberQuestCompletionTouchesGuild(t *testing.T) {
	module := membersvc.NewInMemoryModule(nil)
	ctx := context.Background()

	if _, err := module.Service.Ensure(ctx, "member-1", "Ada"); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	member, err := module.Service.RecordQuestCompletion(ctx, "member-1", 25, "quest completion")
	if err != nil {
		t.Fatalf("record quest completion failed: %v", err)
	}
	if member.Guild == nil || member.Guild.QuestsCompleted != 1 {
		t.Fatalf("expected quest counter 1, got %+v", member.Guild)
	}

	member, err = module.Service.Get(ctx, "member-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if member.Points != 25 {
		t.Fatalf("expected 25 points from quest payout, got %d", member.Points)
	}
}

func TestMemberRoleChangeAndVoterCount(t *testing.T) {
	module := membersvc.NewInMemoryModule(nil)
	ctx := context.Background()

	for _, id := range []string{"member-1", "member-2", "member-3"} {
		if _, err := module.Service.Ensure(ctx, id, id); err != nil {
			t.Fatalf("ensure %s failed: %v", id, err)
		}
	}
	if _, err := module.Service.ApplyRoleChange(ctx, "member-1", "builders", "engineer", 2); err != nil {
		t.Fatalf("role change failed: %v", err)
	}
	if _, err := module.Service.ApplyRoleChange(ctx, "member-2", "builders", "engineer", 1); err != nil {
		t.Fatalf("role change failed: %v", err)
	}
	if _, err := module.Service.ApplyRoleChange(ctx, "member-3", "scribes", "writer", 1); err != nil {
		t.Fatalf("role change failed: %v", err)
	}

	count, err := module.Service.EligibleVoterCount(ctx, "builders", "engineer")
	if err != nil {
		t.Fatalf("voter count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 eligible voters, got %d", count)
	}

	if _, err := module.Service.ApplyRoleChange(ctx, "member-1", "builders", "", 1); !errors.Is(err, membererrors.ErrInvalidMemberInput) {
		t.Fatalf("expected invalid input for empty archetype, got %v", err)
	}
}
