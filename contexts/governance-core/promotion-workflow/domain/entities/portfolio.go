package entities

import (
	"time"

	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
)

type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusPendingVote Status = "pending_vote"
	StatusPromoted    Status = "promoted"
	StatusRejected    Status = "rejected"
)

// Active reports whether the portfolio still blocks the member from opening
// another one.
func (s Status) Active() bool {
	return s == StatusDraft || s == StatusSubmitted
}

func (s Status) Terminal() bool {
	return s == StatusPromoted || s == StatusRejected
}

type ReviewAction string

const (
	ReviewApprove        ReviewAction = "approve"
	ReviewReject         ReviewAction = "reject"
	ReviewRequestChanges ReviewAction = "request_changes"
)

func (a ReviewAction) Valid() bool {
	switch a {
	case ReviewApprove, ReviewReject, ReviewRequestChanges:
		return true
	default:
		return false
	}
}

// Portfolio is the promotion case a member builds and submits. Score and
// ScoreFeedback are written by an external scorer and stored verbatim.
type Portfolio struct {
	PortfolioID    string
	MemberID       string
	Handle         string
	GuildName      string
	CurrentRole    string
	TargetRole     string
	TargetTier     int
	PortfolioURL   string
	Summary        string
	Status         Status
	Tally          ledgerentities.Tally
	Score          *int
	ScoreFeedback  string
	ReviewerID     string
	ReviewFeedback string
	VotingDeadline *time.Time
	ReviewedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PromotionHistory is an append-only record of an applied role change.
type PromotionHistory struct {
	HistoryID   string
	MemberID    string
	PortfolioID string
	FromRole    string
	ToRole      string
	PromotedAt  time.Time
}
