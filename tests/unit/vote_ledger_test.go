package unit

import (
	"errors"
	"testing"
	"time"

	ledgerapp "concord/contexts/governance-core/vote-ledger/application"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	ledgererrors "concord/contexts/governance-core/vote-ledger/domain/errors"
)

func TestVoteResolveFreshCast(t *testing.T) {
	now := time.Now().UTC()
	vote, delta, err := ledgerapp.Resolve(nil, ledgerapp.CastRequest{
		SubjectKind: ledgerentities.SubjectKindContribution,
		SubjectID:   "subject-1",
		AuthorID:    "author-1",
		VoterID:     "voter-1",
		Kind:        ledgerentities.VoteKindApprove,
	}, "vote-1", now)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if vote.VoteID != "vote-1" || vote.Kind != ledgerentities.VoteKindApprove {
		t.Fatalf("unexpected vote row: %+v", vote)
	}
	if delta.Approve != 1 || delta.Reject != 0 {
		t.Fatalf("expected +1 approve delta, got %+v", delta)
	}
}

func TestVoteResolveDuplicateAndSwitch(t *testing.T) {
	now := time.Now().UTC()
	existing := ledgerentities.Vote{
		VoteID:    "vote-1",
		SubjectID: "subject-1",
		VoterID:   "voter-1",
		Kind:      ledgerentities.VoteKindApprove,
		CreatedAt: now.Add(-time.Minute),
		UpdatedAt: now.Add(-time.Minute),
	}

	if _, _, err := ledgerapp.Resolve(&existing, ledgerapp.CastRequest{
		SubjectID: "subject-1",
		VoterID:   "voter-1",
		Kind:      ledgerentities.VoteKindApprove,
	}, "", now); !errors.Is(err, ledgererrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote, got %v", err)
	}

	flipped, delta, err := ledgerapp.Resolve(&existing, ledgerapp.CastRequest{
		SubjectID: "subject-1",
		VoterID:   "voter-1",
		Kind:      ledgerentities.VoteKindReject,
	}, "", now)
	if err != nil {
		t.Fatalf("resolve switch failed: %v", err)
	}
	if flipped.VoteID != "vote-1" {
		t.Fatalf("expected switch to reuse the row, got %s", flipped.VoteID)
	}
	if flipped.Kind != ledgerentities.VoteKindReject {
		t.Fatalf("expected flipped kind, got %s", flipped.Kind)
	}
	if delta.Approve != -1 || delta.Reject != 1 {
		t.Fatalf("expected -1/+1 switch delta, got %+v", delta)
	}
	if !flipped.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated timestamp on switch")
	}
}

func TestVoteResolveGuards(t *testing.T) {
	now := time.Now().UTC()

	if _, _, err := ledgerapp.Resolve(nil, ledgerapp.CastRequest{
		SubjectID:      "subject-1",
		AuthorID:       "voter-1",
		VoterID:        "voter-1",
		Kind:           ledgerentities.VoteKindApprove,
		ForbidSelfVote: true,
	}, "vote-1", now); !errors.Is(err, ledgererrors.ErrSelfVoteForbidden) {
		t.Fatalf("expected self-vote rejection, got %v", err)
	}

	// Without the policy flag the same cast passes.
	if _, _, err := ledgerapp.Resolve(nil, ledgerapp.CastRequest{
		SubjectID: "subject-1",
		AuthorID:  "voter-1",
		VoterID:   "voter-1",
		Kind:      ledgerentities.VoteKindApprove,
	}, "vote-1", now); err != nil {
		t.Fatalf("expected self-vote to pass without the flag, got %v", err)
	}

	if _, _, err := ledgerapp.Resolve(nil, ledgerapp.CastRequest{
		SubjectID: "subject-1",
		VoterID:   "voter-1",
		Kind:      ledgerentities.VoteKind("maybe"),
	}, "vote-1", now); !errors.Is(err, ledgererrors.ErrInvalidVoteInput) {
		t.Fatalf("expected invalid kind rejection, got %v", err)
	}

	if _, _, err := ledgerapp.Resolve(nil, ledgerapp.CastRequest{
		SubjectID: " ",
		VoterID:   "voter-1",
		Kind:      ledgerentities.VoteKindApprove,
	}, "vote-1", now); !errors.Is(err, ledgererrors.ErrInvalidVoteInput) {
		t.Fatalf("expected blank subject rejection, got %v", err)
	}
}
