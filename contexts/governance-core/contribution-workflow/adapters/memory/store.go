package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"concord/contexts/governance-core/contribution-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/contribution-workflow/domain/errors"
	"concord/contexts/governance-core/contribution-workflow/ports"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	"concord/internal/shared/events"

	"github.com/google/uuid"
)

type Store struct {
	mu            sync.RWMutex
	contributions map[string]entities.Contribution
	votes         map[string]ledgerentities.Vote
	outbox        []events.Envelope
}

func NewStore() *Store {
	return &Store{
		contributions: make(map[string]entities.Contribution),
		votes:         make(map[string]ledgerentities.Vote),
	}
}

func (s *Store) SaveContribution(_ context.Context, contribution entities.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contributions[contribution.ContributionID] = contribution
	return nil
}

func (s *Store) GetContribution(_ context.Context, contributionID string) (entities.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contribution, ok := s.contributions[strings.TrimSpace(contributionID)]
	if !ok {
		return entities.Contribution{}, domainerrors.ErrContributionNotFound
	}
	return contribution, nil
}

func (s *Store) OldestCreatedSince(_ context.Context, authorID string, cutoff time.Time) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var oldest time.Time
	found := false
	for _, contribution := range s.contributions {
		if contribution.AuthorID != strings.TrimSpace(authorID) {
			continue
		}
		if contribution.CreatedAt.Before(cutoff) {
			continue
		}
		if !found || contribution.CreatedAt.Before(oldest) {
			oldest = contribution.CreatedAt
			found = true
		}
	}
	return oldest, found, nil
}

func (s *Store) AdjustTally(_ context.Context, contributionID string, delta ledgerentities.TallyDelta) (ledgerentities.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contribution, ok := s.contributions[strings.TrimSpace(contributionID)]
	if !ok {
		return ledgerentities.Tally{}, domainerrors.ErrContributionNotFound
	}
	contribution.Tally = contribution.Tally.Apply(delta)
	s.contributions[contribution.ContributionID] = contribution
	return contribution.Tally, nil
}

func (s *Store) TransitionStatus(
	_ context.Context,
	contributionID string,
	from entities.Status,
	to entities.Status,
	approvedAt *time.Time,
	now time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contribution, ok := s.contributions[strings.TrimSpace(contributionID)]
	if !ok {
		return false, domainerrors.ErrContributionNotFound
	}
	if contribution.Status != from {
		return false, nil
	}
	contribution.Status = to
	contribution.ApprovedAt = approvedAt
	contribution.UpdatedAt = now
	s.contributions[contribution.ContributionID] = contribution
	return true, nil
}

func (s *Store) SetFeatured(_ context.Context, contributionID string, featured bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contribution, ok := s.contributions[strings.TrimSpace(contributionID)]
	if !ok {
		return domainerrors.ErrContributionNotFound
	}
	contribution.Featured = featured
	contribution.UpdatedAt = now
	s.contributions[contribution.ContributionID] = contribution
	return nil
}

func (s *Store) ListContributions(_ context.Context, filter ports.ListFilter) ([]entities.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Contribution, 0)
	for _, contribution := range s.contributions {
		if filter.Category != "" && !strings.EqualFold(contribution.Category, filter.Category) {
			continue
		}
		if filter.Status != "" && contribution.Status != filter.Status {
			continue
		}
		items = append(items, contribution)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ContributionID < items[j].ContributionID
	})

	if filter.Offset >= len(items) {
		return []entities.Contribution{}, nil
	}
	items = items[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) SaveVote(_ context.Context, vote ledgerentities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[vote.VoteID] = vote
	return nil
}

func (s *Store) GetVoteByIdentity(_ context.Context, subjectID string, voterID string) (ledgerentities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, vote := range s.votes {
		if vote.SubjectID == strings.TrimSpace(subjectID) && vote.VoterID == strings.TrimSpace(voterID) {
			return vote, true, nil
		}
	}
	return ledgerentities.Vote{}, false, nil
}

func (s *Store) ListVotesBySubject(_ context.Context, subjectID string) ([]ledgerentities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ledgerentities.Vote, 0)
	for _, vote := range s.votes {
		if vote.SubjectID == strings.TrimSpace(subjectID) {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, envelope)
	return nil
}

// Outbox returns appended envelopes for test assertions.
func (s *Store) Outbox() []events.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Envelope(nil), s.outbox...)
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
