package unit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	nominationworkflow "concord/contexts/governance-core/nomination-workflow"
	nominationmemory "concord/contexts/governance-core/nomination-workflow/adapters/memory"
	nominationcommands "concord/contexts/governance-core/nomination-workflow/application/commands"
	nominationentities "concord/contexts/governance-core/nomination-workflow/domain/entities"
	nominationerrors "concord/contexts/governance-core/nomination-workflow/domain/errors"
	nominationports "concord/contexts/governance-core/nomination-workflow/ports"
	httptransport "concord/contexts/governance-core/nomination-workflow/transport/http"
	ledgerapp "concord/contexts/governance-core/vote-ledger/application"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	ledgererrors "concord/contexts/governance-core/vote-ledger/domain/errors"
)

// settleNominationRepo finalizes the nomination between a caller's status
// read and the vote write, reproducing a cast racing a finalize.
type settleNominationRepo struct {
	nominationports.Repository
	once   sync.Once
	settle func()
}

func (r *settleNominationRepo) GetNomination(ctx context.Context, nominationID string) (nominationentities.Nomination, error) {
	nomination, err := r.Repository.GetNomination(ctx, nominationID)
	if err == nil && !nomination.Status.Terminal() {
		r.once.Do(r.settle)
	}
	return nomination, err
}

type cascadeRecorder struct {
	mu       sync.Mutex
	err      error
	calls    int
	lastID   string
	approved bool
}

func (r *cascadeRecorder) FinalizePromotion(_ context.Context, portfolioID string, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastID = portfolioID
	r.approved = approved
	return r.err
}

func TestNominationSupermajorityFinalizes(t *testing.T) {
	module := nominationworkflow.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	nomination, err := module.Handler.CreateHandler(ctx, "nominator-1", httptransport.CreateNominationRequest{
		NomineeID:  "member-9",
		TargetRole: "guild-lead",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	votes := map[string]string{
		"voter-1": "approve",
		"voter-2": "approve",
		"voter-3": "approve",
		"voter-4": "reject",
		"voter-5": "reject",
	}
	for voter, kind := range votes {
		if _, err := module.Handler.CastVoteHandler(ctx, nomination.NominationID, voter, httptransport.CastVoteRequest{Kind: kind}); err != nil {
			t.Fatalf("vote by %s failed: %v", voter, err)
		}
	}

	readiness, err := module.Handler.CheckReadyHandler(ctx, nomination.NominationID)
	if err != nil {
		t.Fatalf("readiness failed: %v", err)
	}
	if !readiness.Ready {
		t.Fatalf("expected quorum of 5 to be ready")
	}
	// 3/5 sits exactly on the 0.6 bar and passes.
	if !readiness.Approved {
		t.Fatalf("expected 3/5 approval to pass")
	}

	finalized, err := module.Handler.FinalizeHandler(ctx, nomination.NominationID, httptransport.FinalizeRequest{Approved: readiness.Approved})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if finalized.Status != "approved" {
		t.Fatalf("expected approved status, got %s", finalized.Status)
	}

	if _, err := module.Handler.FinalizeHandler(ctx, nomination.NominationID, httptransport.FinalizeRequest{Approved: true}); !errors.Is(err, nominationerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state on repeated finalize, got %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, nomination.NominationID, "voter-6", httptransport.CastVoteRequest{Kind: "approve"}); !errors.Is(err, nominationerrors.ErrInvalidState) {
		t.Fatalf("expected votes on settled nomination to fail, got %v", err)
	}
}

func TestNominationReadinessBelowQuorum(t *testing.T) {
	module := nominationworkflow.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	nomination, err := module.Handler.CreateHandler(ctx, "nominator-1", httptransport.CreateNominationRequest{
		NomineeID:  "member-9",
		TargetRole: "guild-lead",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for _, voter := range []string{"voter-1", "voter-2", "voter-3", "voter-4"} {
		if _, err := module.Handler.CastVoteHandler(ctx, nomination.NominationID, voter, httptransport.CastVoteRequest{Kind: "approve"}); err != nil {
			t.Fatalf("vote by %s failed: %v", voter, err)
		}
	}

	readiness, err := module.Handler.CheckReadyHandler(ctx, nomination.NominationID)
	if err != nil {
		t.Fatalf("readiness failed: %v", err)
	}
	if readiness.Ready {
		t.Fatalf("expected 4 votes to stay below the quorum of 5")
	}

	if _, err := module.Handler.CastVoteHandler(ctx, nomination.NominationID, "nominator-1", httptransport.CastVoteRequest{Kind: "approve"}); !errors.Is(err, ledgererrors.ErrSelfVoteForbidden) {
		t.Fatalf("expected nominator self-vote rejection, got %v", err)
	}
}

func TestNominationCascadesIntoLinkedPromotion(t *testing.T) {
	cascade := &cascadeRecorder{}
	module := nominationworkflow.NewInMemoryModule(cascade, nil)
	ctx := context.Background()

	nomination, err := module.Handler.CreateHandler(ctx, "nominator-1", httptransport.CreateNominationRequest{
		NomineeID:         "member-9",
		TargetRole:        "guild-lead",
		LinkedPromotionID: "portfolio-7",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := module.Handler.FinalizeHandler(ctx, nomination.NominationID, httptransport.FinalizeRequest{Approved: true}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cascade.calls != 1 || cascade.lastID != "portfolio-7" || !cascade.approved {
		t.Fatalf("expected one approved cascade for portfolio-7, got %+v", cascade)
	}
}

func TestNominationCascadeConflictIsBenign(t *testing.T) {
	cascade := &cascadeRecorder{err: nominationerrors.ErrInvalidState}
	module := nominationworkflow.NewInMemoryModule(cascade, nil)
	ctx := context.Background()

	nomination, err := module.Handler.CreateHandler(ctx, "nominator-1", httptransport.CreateNominationRequest{
		NomineeID:         "member-9",
		TargetRole:        "guild-lead",
		LinkedPromotionID: "portfolio-7",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	finalized, err := module.Handler.FinalizeHandler(ctx, nomination.NominationID, httptransport.FinalizeRequest{Approved: false})
	if err != nil {
		t.Fatalf("expected cascade conflict to be swallowed, got %v", err)
	}
	if finalized.Status != "rejected" {
		t.Fatalf("expected rejected status, got %s", finalized.Status)
	}
}

func TestNominationVoteRacingFinalizeIsRejected(t *testing.T) {
	store := nominationmemory.NewStore()
	locks := ledgerapp.NewSubjectLocks()
	ctx := context.Background()

	now := time.Now().UTC()
	if err := store.SaveNomination(ctx, nominationentities.Nomination{
		NominationID: "nomination-1",
		NominatorID:  "nominator-1",
		NomineeID:    "member-9",
		TargetRole:   "guild-lead",
		Status:       nominationentities.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	settler := nominationcommands.NominationUseCase{
		Repo:  store,
		Clock: nominationmemory.SystemClock{},
		IDGen: nominationmemory.UUIDGenerator{},
		Locks: locks,
	}
	repo := &settleNominationRepo{Repository: store}
	repo.settle = func() {
		if _, err := settler.Finalize(ctx, nominationcommands.FinalizeCommand{
			NominationID: "nomination-1",
			Approved:     false,
		}); err != nil {
			t.Errorf("interleaved finalize failed: %v", err)
		}
	}
	voter := nominationcommands.NominationUseCase{
		Repo:  repo,
		Clock: nominationmemory.SystemClock{},
		IDGen: nominationmemory.UUIDGenerator{},
		Locks: locks,
	}

	_, err := voter.CastVote(ctx, nominationcommands.CastVoteCommand{
		NominationID: "nomination-1",
		VoterID:      "voter-1",
		Kind:         ledgerentities.VoteKindApprove,
	})
	if !errors.Is(err, nominationerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state for a vote racing a finalize, got %v", err)
	}

	votes, err := store.ListVotesBySubject(ctx, "nomination-1")
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes) != 0 {
		t.Fatalf("expected no vote recorded on the settled nomination, got %d", len(votes))
	}
	settled, err := store.GetNomination(ctx, "nomination-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if settled.Status != nominationentities.StatusRejected || settled.Tally.Total() != 0 {
		t.Fatalf("expected rejected nomination with untouched tally, got %+v", settled)
	}
}

func TestNominationMarkProcessedFiltersPendingList(t *testing.T) {
	module := nominationworkflow.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	first, err := module.Handler.CreateHandler(ctx, "nominator-1", httptransport.CreateNominationRequest{
		NomineeID:  "member-1",
		TargetRole: "guild-lead",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := module.Handler.CreateHandler(ctx, "nominator-2", httptransport.CreateNominationRequest{
		NomineeID:  "member-2",
		TargetRole: "guild-lead",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := module.Handler.MarkProcessedHandler(ctx, first.NominationID, httptransport.MarkProcessedRequest{
		MessageRef: "msg-1",
		ChannelRef: "chan-1",
	}); err != nil {
		t.Fatalf("mark processed failed: %v", err)
	}

	all, err := module.Handler.ListPendingHandler(ctx, false, 20, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("expected 2 pending nominations, got %d", len(all.Items))
	}

	unprocessed, err := module.Handler.ListPendingHandler(ctx, true, 20, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(unprocessed.Items) != 1 {
		t.Fatalf("expected 1 unprocessed nomination, got %d", len(unprocessed.Items))
	}
	if unprocessed.Items[0].NominationID == first.NominationID {
		t.Fatalf("expected processed nomination to be filtered out")
	}
}
