package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"concord/contexts/governance-core/quest-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/quest-workflow/domain/errors"
	"concord/contexts/governance-core/quest-workflow/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu          sync.RWMutex
	quests      map[string]entities.Quest
	submissions map[string]entities.Submission
}

func NewStore() *Store {
	return &Store{
		quests:      make(map[string]entities.Quest),
		submissions: make(map[string]entities.Submission),
	}
}

func (s *Store) SaveQuest(_ context.Context, quest entities.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quests[quest.QuestID] = quest
	return nil
}

func (s *Store) GetQuest(_ context.Context, questID string) (entities.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quest, ok := s.quests[strings.TrimSpace(questID)]
	if !ok {
		return entities.Quest{}, domainerrors.ErrQuestNotFound
	}
	return quest, nil
}

func (s *Store) SetQuestActive(_ context.Context, questID string, active bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quest, ok := s.quests[strings.TrimSpace(questID)]
	if !ok {
		return domainerrors.ErrQuestNotFound
	}
	quest.Active = active
	quest.UpdatedAt = now
	s.quests[quest.QuestID] = quest
	return nil
}

func (s *Store) ListQuests(_ context.Context, guildName string, activeOnly bool, limit int, offset int) ([]entities.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Quest, 0)
	for _, quest := range s.quests {
		if guildName != "" && quest.GuildName != guildName {
			continue
		}
		if activeOnly && !quest.Active {
			continue
		}
		items = append(items, quest)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].QuestID < items[j].QuestID
	})

	if offset >= len(items) {
		return []entities.Quest{}, nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

// SaveSubmission enforces at most one pending submission per (quest, member)
// inside the store's own critical section, mirroring the partial unique index
// in postgres.
func (s *Store) SaveSubmission(_ context.Context, submission entities.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if submission.Status == entities.SubmissionPending {
		for _, existing := range s.submissions {
			if existing.SubmissionID != submission.SubmissionID &&
				existing.QuestID == submission.QuestID &&
				existing.MemberID == submission.MemberID &&
				existing.Status == entities.SubmissionPending {
				return domainerrors.ErrPendingSubmissionExists
			}
		}
	}
	s.submissions[submission.SubmissionID] = submission
	return nil
}

func (s *Store) GetSubmission(_ context.Context, submissionID string) (entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.submissions[strings.TrimSpace(submissionID)]
	if !ok {
		return entities.Submission{}, domainerrors.ErrSubmissionNotFound
	}
	return submission, nil
}

func (s *Store) HasPendingSubmission(_ context.Context, questID string, memberID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, submission := range s.submissions {
		if submission.QuestID == strings.TrimSpace(questID) &&
			submission.MemberID == strings.TrimSpace(memberID) &&
			submission.Status == entities.SubmissionPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) TransitionSubmissionStatus(
	_ context.Context,
	submissionID string,
	from entities.SubmissionStatus,
	to entities.SubmissionStatus,
	reviewerID string,
	feedback string,
	now time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission, ok := s.submissions[strings.TrimSpace(submissionID)]
	if !ok {
		return false, domainerrors.ErrSubmissionNotFound
	}
	if submission.Status != from {
		return false, nil
	}
	submission.Status = to
	submission.ReviewerID = reviewerID
	submission.Feedback = feedback
	stamp := now
	submission.ReviewedAt = &stamp
	submission.UpdatedAt = now
	s.submissions[submission.SubmissionID] = submission
	return true, nil
}

func (s *Store) ListSubmissions(_ context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Submission, 0)
	for _, submission := range s.submissions {
		if filter.QuestID != "" && submission.QuestID != filter.QuestID {
			continue
		}
		if filter.MemberID != "" && submission.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != "" && submission.Status != filter.Status {
			continue
		}
		items = append(items, submission)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].SubmissionID < items[j].SubmissionID
	})

	if filter.Offset >= len(items) {
		return []entities.Submission{}, nil
	}
	items = items[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
