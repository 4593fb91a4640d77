package entities

import (
	"time"

	ledger "concord/contexts/governance-core/vote-ledger/domain/entities"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Nomination struct {
	NominationID string
	NominatorID  string
	NomineeID    string
	TargetRole   string
	Reason       string
	Status       Status
	Tally        ledger.Tally

	// LinkedPromotionID ties a nomination round to the promotion portfolio it
	// decides; finalization cascades the outcome there.
	LinkedPromotionID string

	// MessageRef/ChannelRef are set by the polling collaborator once it has
	// rendered the voting prompt; ListPending skips marked rows.
	MessageRef string
	ChannelRef string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	FinalizedAt *time.Time
}

func (n Nomination) Processed() bool {
	return n.MessageRef != ""
}
