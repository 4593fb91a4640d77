package unit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	promotionworkflow "concord/contexts/governance-core/promotion-workflow"
	promotionmemory "concord/contexts/governance-core/promotion-workflow/adapters/memory"
	promotioncommands "concord/contexts/governance-core/promotion-workflow/application/commands"
	"concord/contexts/governance-core/promotion-workflow/domain/entities"
	promotionerrors "concord/contexts/governance-core/promotion-workflow/domain/errors"
	promotionports "concord/contexts/governance-core/promotion-workflow/ports"
	httptransport "concord/contexts/governance-core/promotion-workflow/transport/http"
	ledgerapp "concord/contexts/governance-core/vote-ledger/application"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	"concord/internal/platform/notify"
)

// settleOnReadRepo finalizes the portfolio between a caller's status read and
// the vote write, reproducing a cast racing a finalize.
type settleOnReadRepo struct {
	promotionports.Repository
	once   sync.Once
	settle func()
}

func (r *settleOnReadRepo) GetPortfolio(ctx context.Context, portfolioID string) (entities.Portfolio, error) {
	portfolio, err := r.Repository.GetPortfolio(ctx, portfolioID)
	if err == nil && portfolio.Status == entities.StatusPendingVote {
		r.once.Do(r.settle)
	}
	return portfolio, err
}

type roleRecorder struct {
	mu       sync.Mutex
	calls    int
	memberID string
	guild    string
	role     string
	tier     int
}

func (r *roleRecorder) ApplyRoleChange(_ context.Context, memberID string, guildName string, role string, tier int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.memberID = memberID
	r.guild = guildName
	r.role = role
	r.tier = tier
	return nil
}

type staticDirectory struct {
	count int
}

func (d staticDirectory) EligibleVoterCount(_ context.Context, _ string, _ string) (int, error) {
	return d.count, nil
}

func TestPromotionLifecyclePromotes(t *testing.T) {
	roles := &roleRecorder{}
	module := promotionworkflow.NewInMemoryModule(roles, staticDirectory{count: 3}, nil)
	ctx := context.Background()

	portfolio, err := module.Handler.CreateHandler(ctx, "member-1", httptransport.CreatePortfolioRequest{
		GuildName:   "builders",
		CurrentRole: "engineer",
		TargetRole:  "lead",
		TargetTier:  3,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if portfolio.Status != "draft" {
		t.Fatalf("expected draft status, got %s", portfolio.Status)
	}

	if _, err := module.Handler.CreateHandler(ctx, "member-1", httptransport.CreatePortfolioRequest{
		TargetRole: "lead",
	}); !errors.Is(err, promotionerrors.ErrActivePortfolioExists) {
		t.Fatalf("expected active portfolio conflict, got %v", err)
	}

	if _, err := module.Handler.UpdateDraftHandler(ctx, portfolio.PortfolioID, "member-1", httptransport.UpdateDraftRequest{
		Handle:       "member-one",
		PortfolioURL: "https://example.com/p/1",
	}); err != nil {
		t.Fatalf("update draft failed: %v", err)
	}

	submitted, err := module.Handler.SubmitHandler(ctx, portfolio.PortfolioID, "member-1")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if submitted.Status != "submitted" {
		t.Fatalf("expected submitted status, got %s", submitted.Status)
	}

	reviewed, err := module.Handler.ReviewHandler(ctx, portfolio.PortfolioID, "reviewer-1", httptransport.ReviewRequest{
		Action: "approve",
	})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if reviewed.Status != "pending_vote" {
		t.Fatalf("expected pending_vote status, got %s", reviewed.Status)
	}
	if reviewed.VotingDeadline == "" {
		t.Fatalf("expected voting deadline on approval")
	}

	// Community members vote; the owner may vote too by default.
	for voter, kind := range map[string]string{
		"member-1": "approve",
		"voter-2":  "approve",
		"voter-3":  "reject",
	} {
		if _, err := module.Handler.CastVoteHandler(ctx, portfolio.PortfolioID, voter, httptransport.CastVoteRequest{Kind: kind}); err != nil {
			t.Fatalf("vote by %s failed: %v", voter, err)
		}
	}

	readiness, err := module.Handler.CheckReadyHandler(ctx, portfolio.PortfolioID)
	if err != nil {
		t.Fatalf("readiness failed: %v", err)
	}
	if !readiness.Ready {
		t.Fatalf("expected readiness once every eligible voter spoke")
	}
	if !readiness.Approved {
		t.Fatalf("expected 2-1 majority to pass")
	}

	finalized, err := module.Handler.FinalizeHandler(ctx, portfolio.PortfolioID, httptransport.FinalizeRequest{Approved: true})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if finalized.Status != "promoted" {
		t.Fatalf("expected promoted status, got %s", finalized.Status)
	}
	if roles.calls != 1 || roles.memberID != "member-1" || roles.guild != "builders" || roles.role != "lead" || roles.tier != 3 {
		t.Fatalf("expected one role change to lead tier 3, got %+v", roles)
	}

	history, err := module.Handler.HistoryHandler(ctx, "member-1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history.Items) != 1 || history.Items[0].FromRole != "engineer" || history.Items[0].ToRole != "lead" {
		t.Fatalf("expected one engineer->lead history row, got %+v", history.Items)
	}

	if _, err := module.Handler.FinalizeHandler(ctx, portfolio.PortfolioID, httptransport.FinalizeRequest{Approved: true}); !errors.Is(err, promotionerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state on repeated finalize, got %v", err)
	}
	if roles.calls != 1 {
		t.Fatalf("expected role change to stay applied once, got %d calls", roles.calls)
	}
}

func TestPromotionTieRejects(t *testing.T) {
	roles := &roleRecorder{}
	module := promotionworkflow.NewInMemoryModule(roles, staticDirectory{count: 2}, nil)
	ctx := context.Background()

	portfolio, err := module.Handler.CreateHandler(ctx, "member-1", httptransport.CreatePortfolioRequest{
		Handle:     "member-one",
		TargetRole: "lead",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(ctx, portfolio.PortfolioID, "member-1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := module.Handler.ReviewHandler(ctx, portfolio.PortfolioID, "reviewer-1", httptransport.ReviewRequest{Action: "approve"}); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	for voter, kind := range map[string]string{
		"voter-1": "approve",
		"voter-2": "reject",
	} {
		if _, err := module.Handler.CastVoteHandler(ctx, portfolio.PortfolioID, voter, httptransport.CastVoteRequest{Kind: kind}); err != nil {
			t.Fatalf("vote by %s failed: %v", voter, err)
		}
	}

	readiness, err := module.Handler.CheckReadyHandler(ctx, portfolio.PortfolioID)
	if err != nil {
		t.Fatalf("readiness failed: %v", err)
	}
	if !readiness.Ready {
		t.Fatalf("expected readiness at full turnout")
	}
	if readiness.Approved {
		t.Fatalf("expected a tie to fail the strict majority")
	}

	finalized, err := module.Handler.FinalizeHandler(ctx, portfolio.PortfolioID, httptransport.FinalizeRequest{Approved: readiness.Approved})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if finalized.Status != "rejected" {
		t.Fatalf("expected rejected status, got %s", finalized.Status)
	}
	if roles.calls != 0 {
		t.Fatalf("expected no role change on rejection")
	}
}

func TestPromotionRequestChangesReopensDraft(t *testing.T) {
	module := promotionworkflow.NewInMemoryModule(&roleRecorder{}, staticDirectory{count: 1}, nil)
	ctx := context.Background()

	portfolio, err := module.Handler.CreateHandler(ctx, "member-1", httptransport.CreatePortfolioRequest{
		Handle:     "member-one",
		TargetRole: "lead",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(ctx, portfolio.PortfolioID, "member-1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	reopened, err := module.Handler.ReviewHandler(ctx, portfolio.PortfolioID, "reviewer-1", httptransport.ReviewRequest{
		Action: "request_changes",
		Reason: "needs more evidence",
	})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if reopened.Status != "draft" {
		t.Fatalf("expected draft after change request, got %s", reopened.Status)
	}

	// The owner can refine and submit again.
	if _, err := module.Handler.SubmitHandler(ctx, portfolio.PortfolioID, "member-1"); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
}

func TestPromotionApprovalNotifiesGateway(t *testing.T) {
	notifier := notify.NewLogNotifier(nil)
	store := promotionmemory.NewStore()
	module := promotionworkflow.NewModule(promotionworkflow.Dependencies{
		Repo:      store,
		Members:   &roleRecorder{},
		Directory: staticDirectory{count: 1},
		Notifier:  notifier,
		Outbox:    store,
		Clock:     promotionmemory.SystemClock{},
		IDGen:     promotionmemory.UUIDGenerator{},
	})
	ctx := context.Background()

	portfolio, err := module.Handler.CreateHandler(ctx, "member-1", httptransport.CreatePortfolioRequest{
		Handle:       "member-one",
		TargetRole:   "lead",
		PortfolioURL: "https://example.com/p/1",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(ctx, portfolio.PortfolioID, "member-1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := module.Handler.ReviewHandler(ctx, portfolio.PortfolioID, "reviewer-1", httptransport.ReviewRequest{Action: "approve"}); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	delivered := notifier.Delivered()
	if len(delivered) != 1 {
		t.Fatalf("expected one notification, got %d", len(delivered))
	}
	payload := delivered[0]
	if payload.MemberID != "member-1" || payload.TargetRole != "lead" || payload.SubjectID != portfolio.PortfolioID {
		t.Fatalf("unexpected notification payload: %+v", payload)
	}
	if payload.PortfolioURL != "https://example.com/p/1" {
		t.Fatalf("expected the author's portfolio url, got %s", payload.PortfolioURL)
	}
	if payload.DeadlineUnix <= time.Now().Unix() {
		t.Fatalf("expected future voting deadline, got %d", payload.DeadlineUnix)
	}
}

func TestPromotionNotificationFallsBackToBaseURL(t *testing.T) {
	notifier := notify.NewLogNotifier(nil)
	store := promotionmemory.NewStore()
	module := promotionworkflow.NewModule(promotionworkflow.Dependencies{
		Repo:             store,
		Members:          &roleRecorder{},
		Directory:        staticDirectory{count: 1},
		Notifier:         notifier,
		Outbox:           store,
		Clock:            promotionmemory.SystemClock{},
		IDGen:            promotionmemory.UUIDGenerator{},
		PortfolioBaseURL: "https://concord.example/portfolios/",
	})
	ctx := context.Background()

	portfolio, err := module.Handler.CreateHandler(ctx, "member-1", httptransport.CreatePortfolioRequest{
		Handle:     "member-one",
		TargetRole: "lead",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(ctx, portfolio.PortfolioID, "member-1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := module.Handler.ReviewHandler(ctx, portfolio.PortfolioID, "reviewer-1", httptransport.ReviewRequest{Action: "approve"}); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	delivered := notifier.Delivered()
	if len(delivered) != 1 {
		t.Fatalf("expected one notification, got %d", len(delivered))
	}
	want := "https://concord.example/portfolios/" + portfolio.PortfolioID
	if delivered[0].PortfolioURL != want {
		t.Fatalf("expected derived portfolio url %s, got %s", want, delivered[0].PortfolioURL)
	}
}

func TestPromotionConcurrentCreatesSingleActive(t *testing.T) {
	module := promotionworkflow.NewInMemoryModule(&roleRecorder{}, staticDirectory{count: 1}, nil)
	ctx := context.Background()

	const attempts = 6
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	conflicts := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := module.Handler.CreateHandler(ctx, "member-1", httptransport.CreatePortfolioRequest{
				TargetRole: "lead",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, promotionerrors.ErrActivePortfolioExists):
				conflicts++
			default:
				t.Errorf("unexpected create error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != attempts-1 {
		t.Fatalf("expected exactly one active portfolio, got %d created and %d conflicts", created, conflicts)
	}
}

func TestPromotionVoteRacingFinalizeIsRejected(t *testing.T) {
	store := promotionmemory.NewStore()
	locks := ledgerapp.NewSubjectLocks()
	ctx := context.Background()

	now := time.Now().UTC()
	deadline := now.Add(24 * time.Hour)
	if err := store.SavePortfolio(ctx, entities.Portfolio{
		PortfolioID:    "portfolio-1",
		MemberID:       "member-1",
		TargetRole:     "lead",
		Status:         entities.StatusPendingVote,
		VotingDeadline: &deadline,
		CreatedAt:      now,
		UpdatedAt:      now,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	settler := promotioncommands.PromotionUseCase{
		Repo:  store,
		Clock: promotionmemory.SystemClock{},
		IDGen: promotionmemory.UUIDGenerator{},
		Locks: locks,
	}
	repo := &settleOnReadRepo{Repository: store}
	repo.settle = func() {
		if _, err := settler.Finalize(ctx, promotioncommands.FinalizeCommand{
			PortfolioID: "portfolio-1",
			Approved:    false,
		}); err != nil {
			t.Errorf("interleaved finalize failed: %v", err)
		}
	}
	voter := promotioncommands.PromotionUseCase{
		Repo:  repo,
		Clock: promotionmemory.SystemClock{},
		IDGen: promotionmemory.UUIDGenerator{},
		Locks: locks,
	}

	_, err := voter.CastVote(ctx, promotioncommands.CastVoteCommand{
		PortfolioID: "portfolio-1",
		VoterID:     "voter-1",
		Kind:        ledgerentities.VoteKindApprove,
	})
	if !errors.Is(err, promotionerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state for a vote racing a finalize, got %v", err)
	}

	votes, err := store.ListVotesBySubject(ctx, "portfolio-1")
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes) != 0 {
		t.Fatalf("expected no vote recorded on the settled portfolio, got %d", len(votes))
	}
	settled, err := store.GetPortfolio(ctx, "portfolio-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if settled.Status != entities.StatusRejected || settled.Tally.Total() != 0 {
		t.Fatalf("expected rejected portfolio with untouched tally, got %+v", settled)
	}
}

func TestPromotionResubmitCooldown(t *testing.T) {
	module := promotionworkflow.NewInMemoryModule(&roleRecorder{}, staticDirectory{count: 1}, nil)
	ctx := context.Background()

	reviewedAt := time.Now().UTC().Add(-48 * time.Hour)
	if err := module.Store.SavePortfolio(ctx, entities.Portfolio{
		PortfolioID: "portfolio-old",
		MemberID:    "member-1",
		TargetRole:  "lead",
		Status:      entities.StatusRejected,
		ReviewedAt:  &reviewedAt,
		CreatedAt:   reviewedAt,
		UpdatedAt:   reviewedAt,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := module.Handler.CreateHandler(ctx, "member-1", httptransport.CreatePortfolioRequest{
		TargetRole: "lead",
	})
	var cooldown promotionerrors.ResubmitCooldownError
	if !errors.As(err, &cooldown) {
		t.Fatalf("expected resubmit cooldown, got %v", err)
	}
	if cooldown.DaysRemaining != 5 {
		t.Fatalf("expected 5 whole days remaining, got %d", cooldown.DaysRemaining)
	}

	resubmission, err := module.Handler.CanResubmitHandler(ctx, "member-1")
	if err != nil {
		t.Fatalf("resubmission check failed: %v", err)
	}
	if resubmission.Allowed || resubmission.DaysRemaining != 5 {
		t.Fatalf("expected blocked resubmission with 5 days left, got %+v", resubmission)
	}

	// Another member is unaffected.
	if _, err := module.Handler.CreateHandler(ctx, "member-2", httptransport.CreatePortfolioRequest{
		TargetRole: "lead",
	}); err != nil {
		t.Fatalf("unaffected member create failed: %v", err)
	}
}
