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

type Contribution struct {
	ContributionID string
	AuthorID       string
	Title          string
	ContentURL     string
	Category       string
	Status         Status
	Featured       bool
	Tally          ledger.Tally
	ApprovedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
