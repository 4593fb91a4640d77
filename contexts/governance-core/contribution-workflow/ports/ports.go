package ports

import (
	"context"
	"time"

	"concord/contexts/governance-core/contribution-workflow/domain/entities"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	ledgerports "concord/contexts/governance-core/vote-ledger/ports"
	"concord/internal/shared/events"
)

type ListFilter struct {
	Category string
	Status   entities.Status
	Limit    int
	Offset   int
}

// Repository persists contributions and their votes. The tally adjustment and
// the status transition are the concurrency-sensitive operations: both are
// single atomic steps so a race between concurrent upvotes cannot double the
// approval side effects.
type Repository interface {
	ledgerports.VoteStore

	SaveContribution(ctx context.Context, contribution entities.Contribution) error
	GetContribution(ctx context.Context, contributionID string) (entities.Contribution, error)
	// OldestCreatedSince returns the creation time of the author's oldest
	// contribution created at or after the cutoff, for cooldown computation.
	OldestCreatedSince(ctx context.Context, authorID string, cutoff time.Time) (time.Time, bool, error)
	// AdjustTally atomically applies the delta to the cached counters and
	// returns the resulting tally.
	AdjustTally(ctx context.Context, contributionID string, delta ledgerentities.TallyDelta) (ledgerentities.Tally, error)
	// TransitionStatus is a compare-and-swap on the status column; it reports
	// whether this caller won the transition.
	TransitionStatus(ctx context.Context, contributionID string, from entities.Status, to entities.Status, approvedAt *time.Time, now time.Time) (bool, error)
	SetFeatured(ctx context.Context, contributionID string, featured bool, now time.Time) error
	ListContributions(ctx context.Context, filter ListFilter) ([]entities.Contribution, error)
}

// PointsAwarder pays the author on auto-approval.
type PointsAwarder interface {
	AwardPoints(ctx context.Context, memberID string, delta int, reason string) error
}

// DisplayNameResolver joins author names into listings; absent members
// resolve to "Unknown".
type DisplayNameResolver interface {
	ResolveDisplayName(ctx context.Context, memberID string) string
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
