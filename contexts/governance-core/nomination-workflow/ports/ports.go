package ports

import (
	"context"
	"time"

	"concord/contexts/governance-core/nomination-workflow/domain/entities"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	ledgerports "concord/contexts/governance-core/vote-ledger/ports"
	"concord/internal/shared/events"
)

type Repository interface {
	ledgerports.VoteStore

	SaveNomination(ctx context.Context, nomination entities.Nomination) error
	GetNomination(ctx context.Context, nominationID string) (entities.Nomination, error)
	AdjustTally(ctx context.Context, nominationID string, delta ledgerentities.TallyDelta) (ledgerentities.Tally, error)
	// TransitionStatus is a compare-and-swap; the losing caller of a
	// finalize race observes false.
	TransitionStatus(ctx context.Context, nominationID string, from entities.Status, to entities.Status, finalizedAt time.Time) (bool, error)
	SetProcessedMarker(ctx context.Context, nominationID string, messageRef string, channelRef string, now time.Time) error
	ListPending(ctx context.Context, onlyUnprocessed bool, limit int, offset int) ([]entities.Nomination, error)
}

// PromotionFinalizer cascades a nomination outcome into the linked promotion
// portfolio.
type PromotionFinalizer interface {
	FinalizePromotion(ctx context.Context, portfolioID string, approved bool) error
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
