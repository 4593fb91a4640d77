package unit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	questworkflow "concord/contexts/governance-core/quest-workflow"
	"concord/contexts/governance-core/quest-workflow/domain/entities"
	questerrors "concord/contexts/governance-core/quest-workflow/domain/errors"
	questports "concord/contexts/governance-core/quest-workflow/ports"
	httptransport "concord/contexts/governance-core/quest-workflow/transport/http"
)

type guildRoster struct {
	guilds map[string]string
}

func (r guildRoster) MemberGuild(_ context.Context, memberID string) (string, bool, error) {
	guild, ok := r.guilds[memberID]
	return guild, ok, nil
}

type completionRecorder struct {
	mu     sync.Mutex
	calls  int
	awards map[string]int
}

func newCompletionRecorder() *completionRecorder {
	return &completionRecorder{awards: make(map[string]int)}
}

func (r *completionRecorder) RecordQuestCompletion(_ context.Context, memberID string, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.awards[memberID] += points
	return nil
}

func TestQuestSubmissionLifecycle(t *testing.T) {
	awards := newCompletionRecorder()
	roster := guildRoster{guilds: map[string]string{
		"creator-1": "builders",
		"member-1":  "builders",
	}}
	module := questworkflow.NewInMemoryModule(roster, awards, nil)
	ctx := context.Background()

	quest, err := module.Handler.CreateQuestHandler(ctx, "creator-1", httptransport.CreateQuestRequest{
		GuildName: "builders",
		Title:     "Ship the relay",
		Points:    25,
	})
	if err != nil {
		t.Fatalf("create quest failed: %v", err)
	}
	if !quest.Active {
		t.Fatalf("expected quest to open immediately")
	}

	submission, err := module.Handler.SubmitHandler(ctx, quest.QuestID, "member-1", httptransport.SubmitWorkRequest{
		WorkRef: "https://example.com/work-1",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if submission.Status != "pending" {
		t.Fatalf("expected pending submission, got %s", submission.Status)
	}

	// One pending submission per member per quest.
	if _, err := module.Handler.SubmitHandler(ctx, quest.QuestID, "member-1", httptransport.SubmitWorkRequest{
		WorkRef: "https://example.com/work-2",
	}); !errors.Is(err, questerrors.ErrPendingSubmissionExists) {
		t.Fatalf("expected pending submission conflict, got %v", err)
	}

	approved, err := module.Handler.ReviewHandler(ctx, submission.SubmissionID, "creator-1", httptransport.ReviewSubmissionRequest{
		Approve:  true,
		Feedback: "solid work",
	})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if approved.Status != "approved" {
		t.Fatalf("expected approved submission, got %s", approved.Status)
	}
	if awards.calls != 1 || awards.awards["member-1"] != 25 {
		t.Fatalf("expected one payout of 25, got calls=%d awards=%v", awards.calls, awards.awards)
	}

	// The compare-and-swap makes a second review a no-op error.
	if _, err := module.Handler.ReviewHandler(ctx, submission.SubmissionID, "creator-1", httptransport.ReviewSubmissionRequest{Approve: true}); !errors.Is(err, questerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state on second review, got %v", err)
	}
	if awards.calls != 1 {
		t.Fatalf("expected no double payout, got %d calls", awards.calls)
	}

	// After settling, the member may submit again.
	if _, err := module.Handler.SubmitHandler(ctx, quest.QuestID, "member-1", httptransport.SubmitWorkRequest{
		WorkRef: "https://example.com/work-3",
	}); err != nil {
		t.Fatalf("resubmit after settle failed: %v", err)
	}
}

func TestQuestGuildMembershipGate(t *testing.T) {
	roster := guildRoster{guilds: map[string]string{
		"creator-1": "builders",
		"member-1":  "scribes",
	}}
	module := questworkflow.NewInMemoryModule(roster, newCompletionRecorder(), nil)
	ctx := context.Background()

	quest, err := module.Handler.CreateQuestHandler(ctx, "creator-1", httptransport.CreateQuestRequest{
		GuildName: "builders",
		Title:     "Guild-only quest",
		Points:    10,
	})
	if err != nil {
		t.Fatalf("create quest failed: %v", err)
	}

	if _, err := module.Handler.SubmitHandler(ctx, quest.QuestID, "member-1", httptransport.SubmitWorkRequest{
		WorkRef: "ref-1",
	}); !errors.Is(err, questerrors.ErrGuildMismatch) {
		t.Fatalf("expected guild mismatch, got %v", err)
	}
	if _, err := module.Handler.SubmitHandler(ctx, quest.QuestID, "member-404", httptransport.SubmitWorkRequest{
		WorkRef: "ref-1",
	}); !errors.Is(err, questerrors.ErrGuildMismatch) {
		t.Fatalf("expected guild mismatch for unknown member, got %v", err)
	}
}

func TestQuestDeadlineAndDeactivation(t *testing.T) {
	roster := guildRoster{guilds: map[string]string{
		"creator-1": "builders",
		"member-1":  "builders",
	}}
	module := questworkflow.NewInMemoryModule(roster, newCompletionRecorder(), nil)
	ctx := context.Background()

	expired, err := module.Handler.CreateQuestHandler(ctx, "creator-1", httptransport.CreateQuestRequest{
		GuildName: "builders",
		Title:     "Too late",
		Points:    5,
		Deadline:  time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create quest failed: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(ctx, expired.QuestID, "member-1", httptransport.SubmitWorkRequest{
		WorkRef: "ref-1",
	}); !errors.Is(err, questerrors.ErrQuestClosed) {
		t.Fatalf("expected closed quest, got %v", err)
	}

	open, err := module.Handler.CreateQuestHandler(ctx, "creator-1", httptransport.CreateQuestRequest{
		GuildName: "builders",
		Title:     "Open quest",
		Points:    5,
	})
	if err != nil {
		t.Fatalf("create quest failed: %v", err)
	}

	if err := module.Handler.DeactivateHandler(ctx, open.QuestID, "member-1"); !errors.Is(err, questerrors.ErrNotQuestCreator) {
		t.Fatalf("expected creator-only deactivation, got %v", err)
	}
	if err := module.Handler.DeactivateHandler(ctx, open.QuestID, "creator-1"); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(ctx, open.QuestID, "member-1", httptransport.SubmitWorkRequest{
		WorkRef: "ref-1",
	}); !errors.Is(err, questerrors.ErrQuestClosed) {
		t.Fatalf("expected closed quest after deactivation, got %v", err)
	}

	// The active filter tracks the flag only; expired quests stay listed
	// until someone deactivates them.
	quests, err := module.Handler.ListQuestsHandler(ctx, "builders", true, 20, 0)
	if err != nil {
		t.Fatalf("list quests failed: %v", err)
	}
	if len(quests.Items) != 1 || quests.Items[0].QuestID != expired.QuestID {
		t.Fatalf("expected only the expired quest to remain flagged active, got %+v", quests.Items)
	}
}

func TestQuestConcurrentSubmitsKeepOnePending(t *testing.T) {
	roster := guildRoster{guilds: map[string]string{
		"creator-1": "builders",
		"member-1":  "builders",
	}}
	module := questworkflow.NewInMemoryModule(roster, newCompletionRecorder(), nil)
	ctx := context.Background()

	quest, err := module.Handler.CreateQuestHandler(ctx, "creator-1", httptransport.CreateQuestRequest{
		GuildName: "builders",
		Title:     "Contended quest",
		Points:    25,
	})
	if err != nil {
		t.Fatalf("create quest failed: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	conflicts := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := module.Handler.SubmitHandler(ctx, quest.QuestID, "member-1", httptransport.SubmitWorkRequest{
				WorkRef: "https://example.com/work",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, questerrors.ErrPendingSubmissionExists):
				conflicts++
			default:
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 || conflicts != attempts-1 {
		t.Fatalf("expected one accepted submission, got %d accepted and %d conflicts", accepted, conflicts)
	}

	pending, err := module.Handler.ListSubmissionsHandler(ctx, questports.SubmissionFilter{
		QuestID:  quest.QuestID,
		MemberID: "member-1",
		Status:   entities.SubmissionPending,
		Limit:    20,
	})
	if err != nil {
		t.Fatalf("list submissions failed: %v", err)
	}
	if len(pending.Items) != 1 {
		t.Fatalf("expected exactly one pending submission, got %d", len(pending.Items))
	}
}
