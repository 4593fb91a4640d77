package ports

import (
	"context"
	"time"

	"concord/contexts/governance-core/promotion-workflow/domain/entities"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	ledgerports "concord/contexts/governance-core/vote-ledger/ports"
	"concord/internal/shared/events"
)

// StatusPatch carries the fields a status transition stamps alongside the
// compare-and-swap. Nil pointers and empty strings leave columns untouched.
type StatusPatch struct {
	VotingDeadline *time.Time
	ReviewedAt     *time.Time
	ReviewerID     string
	ReviewFeedback string
}

type Repository interface {
	ledgerports.VoteStore

	SavePortfolio(ctx context.Context, portfolio entities.Portfolio) error
	GetPortfolio(ctx context.Context, portfolioID string) (entities.Portfolio, error)
	// GetActivePortfolio returns the member's draft or submitted portfolio,
	// if one exists.
	GetActivePortfolio(ctx context.Context, memberID string) (entities.Portfolio, bool, error)
	// LatestRejected returns the member's most recently reviewed rejected
	// portfolio, if any.
	LatestRejected(ctx context.Context, memberID string) (entities.Portfolio, bool, error)
	AdjustTally(ctx context.Context, portfolioID string, delta ledgerentities.TallyDelta) (ledgerentities.Tally, error)
	// TransitionStatus is a compare-and-swap; the losing caller of a
	// concurrent transition observes false.
	TransitionStatus(ctx context.Context, portfolioID string, from entities.Status, to entities.Status, patch StatusPatch, now time.Time) (bool, error)
	SetScore(ctx context.Context, portfolioID string, score int, feedback string, now time.Time) error
	AppendHistory(ctx context.Context, record entities.PromotionHistory) error
	ListHistory(ctx context.Context, memberID string) ([]entities.PromotionHistory, error)
	ListByStatus(ctx context.Context, status entities.Status, limit int, offset int) ([]entities.Portfolio, error)
}

// RoleChanger applies the promoted role and tier on the member record.
type RoleChanger interface {
	ApplyRoleChange(ctx context.Context, memberID string, guildName string, role string, tier int) error
}

// VoterDirectory reports how many members may vote on a portfolio, used to
// close the vote early when everyone has spoken.
type VoterDirectory interface {
	EligibleVoterCount(ctx context.Context, guildName string, role string) (int, error)
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
