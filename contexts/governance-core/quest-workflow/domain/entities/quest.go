package entities

import "time"

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Quest is a guild-scoped task worth a fixed number of points. A nil
// Deadline means the quest stays open until deactivated.
type Quest struct {
	QuestID     string
	GuildName   string
	CreatorID   string
	Title       string
	Description string
	Points      int
	Deadline    *time.Time
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Open reports whether the quest accepts submissions at the given instant.
func (q Quest) Open(now time.Time) bool {
	if !q.Active {
		return false
	}
	if q.Deadline != nil && now.After(*q.Deadline) {
		return false
	}
	return true
}

type Submission struct {
	SubmissionID string
	QuestID      string
	MemberID     string
	WorkRef      string
	Status       SubmissionStatus
	ReviewerID   string
	Feedback     string
	ReviewedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
