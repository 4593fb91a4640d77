package unit

import (
	"context"
	"errors"
	"sync"
	"testing"

	contributionworkflow "concord/contexts/governance-core/contribution-workflow"
	contributionerrors "concord/contexts/governance-core/contribution-workflow/domain/errors"
	httptransport "concord/contexts/governance-core/contribution-workflow/transport/http"
	ledgererrors "concord/contexts/governance-core/vote-ledger/domain/errors"
)

type pointsRecorder struct {
	mu     sync.Mutex
	awards map[string]int
	calls  int
}

func newPointsRecorder() *pointsRecorder {
	return &pointsRecorder{awards: make(map[string]int)}
}

func (r *pointsRecorder) AwardPoints(_ context.Context, memberID string, delta int, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.awards[memberID] += delta
	r.calls++
	return nil
}

type staticNames struct{}

func (staticNames) ResolveDisplayName(_ context.Context, _ string) string { return "Unknown" }

func TestContributionSubmitRateLimited(t *testing.T) {
	module := contributionworkflow.NewInMemoryModule(newPointsRecorder(), staticNames{}, nil)
	ctx := context.Background()

	first, err := module.Handler.SubmitHandler(ctx, "author-1", httptransport.SubmitContributionRequest{
		Title:      "Intro to governance",
		ContentURL: "https://example.com/post-1",
		Category:   "article",
	})
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if first.Status != "pending" {
		t.Fatalf("expected pending status, got %s", first.Status)
	}

	_, err = module.Handler.SubmitHandler(ctx, "author-1", httptransport.SubmitContributionRequest{
		Title: "Second within window",
	})
	var rateLimited contributionerrors.RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if rateLimited.CooldownEndsAt.IsZero() {
		t.Fatalf("expected cooldown deadline on rate limit")
	}

	eligibility, err := module.Handler.EligibilityHandler(ctx, "author-1")
	if err != nil {
		t.Fatalf("eligibility failed: %v", err)
	}
	if eligibility.CanSubmit {
		t.Fatalf("expected author to be in cooldown")
	}
	if eligibility.CooldownEndsAt == "" {
		t.Fatalf("expected cooldown timestamp in eligibility")
	}

	// A different author is unaffected by the window.
	other, err := module.Handler.EligibilityHandler(ctx, "author-2")
	if err != nil {
		t.Fatalf("eligibility failed: %v", err)
	}
	if !other.CanSubmit {
		t.Fatalf("expected other author to be eligible")
	}
}

func TestContributionConcurrentSubmitsHonorWindow(t *testing.T) {
	module := contributionworkflow.NewInMemoryModule(newPointsRecorder(), staticNames{}, nil)
	ctx := context.Background()

	const attempts = 6
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	limited := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := module.Handler.SubmitHandler(ctx, "author-1", httptransport.SubmitContributionRequest{
				Title: "Contended submit",
			})
			mu.Lock()
			defer mu.Unlock()
			var rateLimited contributionerrors.RateLimitedError
			switch {
			case err == nil:
				accepted++
			case errors.As(err, &rateLimited):
				limited++
			default:
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 || limited != attempts-1 {
		t.Fatalf("expected one submission inside the window, got %d accepted and %d limited", accepted, limited)
	}

	listed, err := module.Handler.ListHandler(ctx, "", "", 20, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed.Items) != 1 {
		t.Fatalf("expected one stored contribution, got %d", len(listed.Items))
	}
}

func TestContributionUpvoteThresholdAwardsOnce(t *testing.T) {
	points := newPointsRecorder()
	module := contributionworkflow.NewInMemoryModule(points, staticNames{}, nil)
	ctx := context.Background()

	contribution, err := module.Handler.SubmitHandler(ctx, "author-1", httptransport.SubmitContributionRequest{
		Title: "Threshold test",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	for i, voter := range []string{"voter-1", "voter-2"} {
		result, err := module.Handler.CastVoteHandler(ctx, contribution.ContributionID, voter, httptransport.CastVoteRequest{Kind: "upvote"})
		if err != nil {
			t.Fatalf("vote %d failed: %v", i, err)
		}
		if result.AutoApproved {
			t.Fatalf("unexpected auto-approval at %d upvotes", result.Upvotes)
		}
	}

	third, err := module.Handler.CastVoteHandler(ctx, contribution.ContributionID, "voter-3", httptransport.CastVoteRequest{Kind: "upvote"})
	if err != nil {
		t.Fatalf("third vote failed: %v", err)
	}
	if !third.AutoApproved {
		t.Fatalf("expected auto-approval at the threshold")
	}
	if third.Upvotes != 3 {
		t.Fatalf("expected 3 upvotes, got %d", third.Upvotes)
	}

	// A vote past the threshold must not re-approve or double-award.
	fourth, err := module.Handler.CastVoteHandler(ctx, contribution.ContributionID, "voter-4", httptransport.CastVoteRequest{Kind: "upvote"})
	if err != nil {
		t.Fatalf("fourth vote failed: %v", err)
	}
	if fourth.AutoApproved {
		t.Fatalf("expected no second auto-approval")
	}
	if points.calls != 1 || points.awards["author-1"] != 10 {
		t.Fatalf("expected exactly one award of 10, got calls=%d awards=%v", points.calls, points.awards)
	}

	if err := module.Handler.FeatureHandler(ctx, contribution.ContributionID, httptransport.FeatureContributionRequest{Featured: true}); err != nil {
		t.Fatalf("feature failed: %v", err)
	}
	view, err := module.Handler.GetHandler(ctx, contribution.ContributionID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if view.Status != "approved" || !view.Featured {
		t.Fatalf("expected approved+featured, got status=%s featured=%v", view.Status, view.Featured)
	}
}

func TestContributionConcurrentUpvotesAwardOnce(t *testing.T) {
	points := newPointsRecorder()
	module := contributionworkflow.NewInMemoryModule(points, staticNames{}, nil)
	ctx := context.Background()

	contribution, err := module.Handler.SubmitHandler(ctx, "author-1", httptransport.SubmitContributionRequest{
		Title: "Race test",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	voters := []string{"voter-1", "voter-2", "voter-3", "voter-4", "voter-5", "voter-6"}
	var wg sync.WaitGroup
	for _, voter := range voters {
		wg.Add(1)
		go func(voter string) {
			defer wg.Done()
			if _, err := module.Handler.CastVoteHandler(ctx, contribution.ContributionID, voter, httptransport.CastVoteRequest{Kind: "upvote"}); err != nil {
				t.Errorf("vote by %s failed: %v", voter, err)
			}
		}(voter)
	}
	wg.Wait()

	if points.calls != 1 || points.awards["author-1"] != 10 {
		t.Fatalf("expected exactly one award under contention, got calls=%d awards=%v", points.calls, points.awards)
	}
	view, err := module.Handler.GetHandler(ctx, contribution.ContributionID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if view.Status != "approved" || view.Upvotes != len(voters) {
		t.Fatalf("expected approved with %d upvotes, got status=%s upvotes=%d", len(voters), view.Status, view.Upvotes)
	}
}

func TestContributionVoteRules(t *testing.T) {
	module := contributionworkflow.NewInMemoryModule(newPointsRecorder(), staticNames{}, nil)
	ctx := context.Background()

	contribution, err := module.Handler.SubmitHandler(ctx, "author-1", httptransport.SubmitContributionRequest{
		Title: "Vote rules",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := module.Handler.CastVoteHandler(ctx, contribution.ContributionID, "author-1", httptransport.CastVoteRequest{Kind: "upvote"}); !errors.Is(err, ledgererrors.ErrSelfVoteForbidden) {
		t.Fatalf("expected self-vote rejection, got %v", err)
	}

	first, err := module.Handler.CastVoteHandler(ctx, contribution.ContributionID, "voter-1", httptransport.CastVoteRequest{Kind: "upvote"})
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if first.Upvotes != 1 || first.Downvotes != 0 {
		t.Fatalf("expected 1/0 tally, got %d/%d", first.Upvotes, first.Downvotes)
	}

	if _, err := module.Handler.CastVoteHandler(ctx, contribution.ContributionID, "voter-1", httptransport.CastVoteRequest{Kind: "upvote"}); !errors.Is(err, ledgererrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote rejection, got %v", err)
	}

	// Switching flips the existing row and moves the tally both ways.
	switched, err := module.Handler.CastVoteHandler(ctx, contribution.ContributionID, "voter-1", httptransport.CastVoteRequest{Kind: "downvote"})
	if err != nil {
		t.Fatalf("switch vote failed: %v", err)
	}
	if switched.VoteID != first.VoteID {
		t.Fatalf("expected switch to keep the vote row, got %s and %s", first.VoteID, switched.VoteID)
	}
	if switched.Upvotes != 0 || switched.Downvotes != 1 {
		t.Fatalf("expected 0/1 tally after switch, got %d/%d", switched.Upvotes, switched.Downvotes)
	}
}

func TestContributionRejectIsTerminal(t *testing.T) {
	module := contributionworkflow.NewInMemoryModule(newPointsRecorder(), staticNames{}, nil)
	ctx := context.Background()

	contribution, err := module.Handler.SubmitHandler(ctx, "author-1", httptransport.SubmitContributionRequest{
		Title: "Moderation",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := module.Handler.RejectHandler(ctx, contribution.ContributionID, "moderator-1", httptransport.RejectContributionRequest{Reason: "off topic"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if err := module.Handler.RejectHandler(ctx, contribution.ContributionID, "moderator-1", httptransport.RejectContributionRequest{}); !errors.Is(err, contributionerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state on second reject, got %v", err)
	}
	if err := module.Handler.FeatureHandler(ctx, contribution.ContributionID, httptransport.FeatureContributionRequest{Featured: true}); !errors.Is(err, contributionerrors.ErrInvalidState) {
		t.Fatalf("expected feature on rejected to fail, got %v", err)
	}
}
