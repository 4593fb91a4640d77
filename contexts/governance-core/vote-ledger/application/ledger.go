package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"concord/contexts/governance-core/vote-ledger/domain/entities"
	domainerrors "concord/contexts/governance-core/vote-ledger/domain/errors"
	"concord/contexts/governance-core/vote-ledger/ports"
)

// CastRequest is the write-model input shared by all vote-based workflows.
type CastRequest struct {
	SubjectKind    entities.SubjectKind
	SubjectID      string
	AuthorID       string
	VoterID        string
	Kind           entities.VoteKind
	Reason         string
	ForbidSelfVote bool

	// Guard runs under the subject lock before the vote row is written.
	// Workflows re-verify subject status here so a cast racing a finalize
	// cannot land on a terminal subject.
	Guard func(ctx context.Context) error
}

// Resolve computes the outcome of a cast against the voter's existing row.
// Pure by design so workflow services can run it inside their own critical
// sections. A fresh vote yields a +1 delta; an opposite-kind existing vote is
// flipped in place and yields the -1/+1 switch delta.
func Resolve(
	existing *entities.Vote,
	req CastRequest,
	newVoteID string,
	now time.Time,
) (entities.Vote, entities.TallyDelta, error) {
	if strings.TrimSpace(req.SubjectID) == "" ||
		strings.TrimSpace(req.VoterID) == "" ||
		!req.Kind.Valid() {
		return entities.Vote{}, entities.TallyDelta{}, domainerrors.ErrInvalidVoteInput
	}
	if req.ForbidSelfVote &&
		strings.EqualFold(strings.TrimSpace(req.VoterID), strings.TrimSpace(req.AuthorID)) {
		return entities.Vote{}, entities.TallyDelta{}, domainerrors.ErrSelfVoteForbidden
	}

	if existing != nil {
		if existing.Kind == req.Kind {
			return entities.Vote{}, entities.TallyDelta{}, domainerrors.ErrDuplicateVote
		}
		flipped := *existing
		flipped.Kind = req.Kind
		flipped.Reason = strings.TrimSpace(req.Reason)
		flipped.UpdatedAt = now
		return flipped, switchDelta(existing.Kind, req.Kind), nil
	}

	vote := entities.Vote{
		VoteID:      strings.TrimSpace(newVoteID),
		SubjectKind: req.SubjectKind,
		SubjectID:   strings.TrimSpace(req.SubjectID),
		VoterID:     strings.TrimSpace(req.VoterID),
		Kind:        req.Kind,
		Reason:      strings.TrimSpace(req.Reason),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return vote, castDelta(req.Kind), nil
}

func castDelta(kind entities.VoteKind) entities.TallyDelta {
	if kind == entities.VoteKindApprove {
		return entities.TallyDelta{Approve: 1}
	}
	return entities.TallyDelta{Reject: 1}
}

func switchDelta(from entities.VoteKind, to entities.VoteKind) entities.TallyDelta {
	delta := castDelta(to)
	if from == entities.VoteKindApprove {
		delta.Approve--
	} else {
		delta.Reject--
	}
	return delta
}

// SubjectLocks serializes operations that race on one subject: a vote cast
// racing another cast, or a cast racing a finalize. Different subjects never
// contend.
type SubjectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSubjectLocks() *SubjectLocks {
	return &SubjectLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *SubjectLocks) Lock(subjectID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[subjectID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[subjectID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Ledger binds the cast rules to a workflow's vote store. The apply callback
// runs under the subject lock, after the vote row is saved; workflows use it
// to apply the tally delta and run threshold check-then-act atomically with
// the cast.
type Ledger struct {
	Votes  ports.VoteStore
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Locks  *SubjectLocks
	Logger *slog.Logger
}

func (l Ledger) Cast(
	ctx context.Context,
	req CastRequest,
	apply func(ctx context.Context, vote entities.Vote, delta entities.TallyDelta) error,
) (entities.Vote, entities.TallyDelta, error) {
	unlock := l.Locks.Lock(strings.TrimSpace(req.SubjectID))
	defer unlock()

	if req.Guard != nil {
		if err := req.Guard(ctx); err != nil {
			return entities.Vote{}, entities.TallyDelta{}, err
		}
	}

	var existing *entities.Vote
	if found, ok, err := l.Votes.GetVoteByIdentity(ctx, req.SubjectID, req.VoterID); err != nil {
		return entities.Vote{}, entities.TallyDelta{}, err
	} else if ok {
		existing = &found
	}

	voteID := ""
	if existing == nil {
		id, err := l.IDGen.NewID(ctx)
		if err != nil {
			return entities.Vote{}, entities.TallyDelta{}, err
		}
		voteID = id
	}

	vote, delta, err := Resolve(existing, req, voteID, l.now())
	if err != nil {
		return entities.Vote{}, entities.TallyDelta{}, err
	}
	if err := l.Votes.SaveVote(ctx, vote); err != nil {
		return entities.Vote{}, entities.TallyDelta{}, err
	}
	if apply != nil {
		if err := apply(ctx, vote, delta); err != nil {
			return entities.Vote{}, entities.TallyDelta{}, err
		}
	}

	if l.Logger != nil {
		l.Logger.Info("vote cast",
			"event", "vote_ledger_cast",
			"module", "governance-core/vote-ledger",
			"layer", "application",
			"subject_kind", string(req.SubjectKind),
			"subject_id", strings.TrimSpace(req.SubjectID),
			"voter_id", strings.TrimSpace(req.VoterID),
			"vote_kind", string(req.Kind),
			"switched", existing != nil,
		)
	}
	return vote, delta, nil
}

func (l Ledger) now() time.Time {
	if l.Clock != nil {
		return l.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
