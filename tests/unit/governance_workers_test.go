package unit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	nominationworkflow "concord/contexts/governance-core/nomination-workflow"
	nominationworkers "concord/contexts/governance-core/nomination-workflow/application/workers"
	nominationhttp "concord/contexts/governance-core/nomination-workflow/transport/http"
	promotionworkflow "concord/contexts/governance-core/promotion-workflow"
	promotionworkers "concord/contexts/governance-core/promotion-workflow/application/workers"
	promotionhttp "concord/contexts/governance-core/promotion-workflow/transport/http"
	"concord/internal/shared/events"
	"concord/internal/shared/outbox"
)

func TestNominationFinalizerSettlesQuorum(t *testing.T) {
	module := nominationworkflow.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	nomination, err := module.Handler.CreateHandler(ctx, "nominator-1", nominationhttp.CreateNominationRequest{
		NomineeID:  "member-9",
		TargetRole: "guild-lead",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for voter, kind := range map[string]string{
		"voter-1": "approve",
		"voter-2": "approve",
		"voter-3": "approve",
		"voter-4": "approve",
		"voter-5": "reject",
	} {
		if _, err := module.Handler.CastVoteHandler(ctx, nomination.NominationID, voter, nominationhttp.CastVoteRequest{Kind: kind}); err != nil {
			t.Fatalf("vote by %s failed: %v", voter, err)
		}
	}

	finalizer := nominationworkers.Finalizer{
		Nominations: module.Nominations,
		Readiness:   module.Readiness,
	}
	if err := finalizer.RunOnce(ctx); err != nil {
		t.Fatalf("run once failed: %v", err)
	}

	settled, err := module.Handler.GetHandler(ctx, nomination.NominationID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if settled.Status != "approved" {
		t.Fatalf("expected poller to approve, got %s", settled.Status)
	}

	// A second pass sees no pending work and changes nothing.
	if err := finalizer.RunOnce(ctx); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
}

func TestPromotionFinalizerWaitsForTurnout(t *testing.T) {
	module := promotionworkflow.NewInMemoryModule(&roleRecorder{}, staticDirectory{count: 5}, nil)
	ctx := context.Background()

	portfolio, err := module.Handler.CreateHandler(ctx, "member-1", promotionhttp.CreatePortfolioRequest{
		Handle:     "member-one",
		TargetRole: "lead",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(ctx, portfolio.PortfolioID, "member-1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := module.Handler.ReviewHandler(ctx, portfolio.PortfolioID, "reviewer-1", promotionhttp.ReviewRequest{Action: "approve"}); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, portfolio.PortfolioID, "voter-1", promotionhttp.CastVoteRequest{Kind: "approve"}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	finalizer := promotionworkers.Finalizer{
		Promotions: module.Promotions,
		Readiness:  module.Readiness,
	}
	if err := finalizer.RunOnce(ctx); err != nil {
		t.Fatalf("run once failed: %v", err)
	}

	waiting, err := module.Handler.GetHandler(ctx, portfolio.PortfolioID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if waiting.Status != "pending_vote" {
		t.Fatalf("expected vote to stay open below turnout, got %s", waiting.Status)
	}
}

func TestPromotionFinalizerSettlesFullTurnout(t *testing.T) {
	roles := &roleRecorder{}
	module := promotionworkflow.NewInMemoryModule(roles, staticDirectory{count: 1}, nil)
	ctx := context.Background()

	portfolio, err := module.Handler.CreateHandler(ctx, "member-1", promotionhttp.CreatePortfolioRequest{
		Handle:     "member-one",
		GuildName:  "builders",
		TargetRole: "lead",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := module.Handler.SubmitHandler(ctx, portfolio.PortfolioID, "member-1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := module.Handler.ReviewHandler(ctx, portfolio.PortfolioID, "reviewer-1", promotionhttp.ReviewRequest{Action: "approve"}); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, portfolio.PortfolioID, "voter-1", promotionhttp.CastVoteRequest{Kind: "approve"}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	finalizer := promotionworkers.Finalizer{
		Promotions: module.Promotions,
		Readiness:  module.Readiness,
	}
	if err := finalizer.RunOnce(ctx); err != nil {
		t.Fatalf("run once failed: %v", err)
	}

	settled, err := module.Handler.GetHandler(ctx, portfolio.PortfolioID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if settled.Status != "promoted" {
		t.Fatalf("expected poller to promote, got %s", settled.Status)
	}
	if roles.calls != 1 {
		t.Fatalf("expected one role change, got %d", roles.calls)
	}
}

type outboxReaderStub struct {
	mu        sync.Mutex
	pending   []outbox.Message
	published []string
	failed    []string
}

func (s *outboxReaderStub) ListPending(_ context.Context, _ int) ([]outbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Message(nil), s.pending...), nil
}

func (s *outboxReaderStub) MarkPublished(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, messageID)
	return nil
}

func (s *outboxReaderStub) MarkFailed(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, messageID)
	return nil
}

type publisherStub struct {
	mu     sync.Mutex
	topics []string
	events []events.Envelope
}

func (s *publisherStub) Publish(_ context.Context, topic string, event events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, topic)
	s.events = append(s.events, event)
	return nil
}

func TestOutboxRelayPublishesAndQuarantines(t *testing.T) {
	good, err := json.Marshal(events.Envelope{
		EventID:       "event-1",
		EventType:     "contribution.approved",
		SourceModule:  "governance-core/contribution-workflow",
		OccurredAtUTC: time.Now().UTC(),
		SubjectKind:   "contribution",
		SubjectID:     "contribution-1",
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	reader := &outboxReaderStub{pending: []outbox.Message{
		{ID: "msg-1", EventType: "contribution.approved", Payload: good, Status: outbox.StatusPending},
		{ID: "msg-2", EventType: "broken", Payload: []byte("{not json"), Status: outbox.StatusPending},
	}}
	publisher := &publisherStub{}

	relay := outbox.Relay{
		Outbox:    reader,
		Publisher: publisher,
		Topic:     "governance.events",
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}

	if len(publisher.events) != 1 || publisher.events[0].EventID != "event-1" {
		t.Fatalf("expected one published envelope, got %+v", publisher.events)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "governance.events" {
		t.Fatalf("expected governance.events topic, got %v", publisher.topics)
	}
	if len(reader.published) != 1 || reader.published[0] != "msg-1" {
		t.Fatalf("expected msg-1 published, got %v", reader.published)
	}
	if len(reader.failed) != 1 || reader.failed[0] != "msg-2" {
		t.Fatalf("expected msg-2 quarantined, got %v", reader.failed)
	}
}
