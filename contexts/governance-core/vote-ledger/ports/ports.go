package ports

import (
	"context"
	"time"

	"concord/contexts/governance-core/vote-ledger/domain/entities"
)

// VoteStore is implemented by each workflow's repository. SaveVote upserts by
// vote ID; GetVoteByIdentity resolves the voter's live row on a subject.
type VoteStore interface {
	SaveVote(ctx context.Context, vote entities.Vote) error
	GetVoteByIdentity(ctx context.Context, subjectID string, voterID string) (entities.Vote, bool, error)
	ListVotesBySubject(ctx context.Context, subjectID string) ([]entities.Vote, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
