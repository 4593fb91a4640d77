package ports

import (
	"context"
	"time"

	"concord/contexts/governance-core/quest-workflow/domain/entities"
)

type SubmissionFilter struct {
	QuestID  string
	MemberID string
	Status   entities.SubmissionStatus
	Limit    int
	Offset   int
}

type Repository interface {
	SaveQuest(ctx context.Context, quest entities.Quest) error
	GetQuest(ctx context.Context, questID string) (entities.Quest, error)
	SetQuestActive(ctx context.Context, questID string, active bool, now time.Time) error
	ListQuests(ctx context.Context, guildName string, activeOnly bool, limit int, offset int) ([]entities.Quest, error)

	SaveSubmission(ctx context.Context, submission entities.Submission) error
	GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error)
	// HasPendingSubmission reports whether the member already has an open
	// submission for the quest.
	HasPendingSubmission(ctx context.Context, questID string, memberID string) (bool, error)
	// TransitionSubmissionStatus is a compare-and-swap; the losing reviewer
	// of a concurrent review observes false.
	TransitionSubmissionStatus(ctx context.Context, submissionID string, from entities.SubmissionStatus, to entities.SubmissionStatus, reviewerID string, feedback string, now time.Time) (bool, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]entities.Submission, error)
}

// MemberDirectory exposes the guild affiliation checks the workflow needs
// from the member context.
type MemberDirectory interface {
	MemberGuild(ctx context.Context, memberID string) (string, bool, error)
}

// QuestCompleter applies the approval side effects on the member record:
// point award, completion counter, last-active touch.
type QuestCompleter interface {
	RecordQuestCompletion(ctx context.Context, memberID string, points int) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
