package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"concord/contexts/governance-core/promotion-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/promotion-workflow/domain/errors"
	"concord/contexts/governance-core/promotion-workflow/ports"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	"concord/internal/shared/events"

	"github.com/google/uuid"
)

type Store struct {
	mu         sync.RWMutex
	portfolios map[string]entities.Portfolio
	votes      map[string]ledgerentities.Vote
	history    []entities.PromotionHistory
	outbox     []events.Envelope
}

func NewStore() *Store {
	return &Store{
		portfolios: make(map[string]entities.Portfolio),
		votes:      make(map[string]ledgerentities.Vote),
	}
}

func (s *Store) SavePortfolio(_ context.Context, portfolio entities.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios[portfolio.PortfolioID] = portfolio
	return nil
}

func (s *Store) GetPortfolio(_ context.Context, portfolioID string) (entities.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	portfolio, ok := s.portfolios[strings.TrimSpace(portfolioID)]
	if !ok {
		return entities.Portfolio{}, domainerrors.ErrPortfolioNotFound
	}
	return portfolio, nil
}

func (s *Store) GetActivePortfolio(_ context.Context, memberID string) (entities.Portfolio, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, portfolio := range s.portfolios {
		if portfolio.MemberID == strings.TrimSpace(memberID) && portfolio.Status.Active() {
			return portfolio, true, nil
		}
	}
	return entities.Portfolio{}, false, nil
}

func (s *Store) LatestRejected(_ context.Context, memberID string) (entities.Portfolio, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest entities.Portfolio
	found := false
	for _, portfolio := range s.portfolios {
		if portfolio.MemberID != strings.TrimSpace(memberID) || portfolio.Status != entities.StatusRejected {
			continue
		}
		if portfolio.ReviewedAt == nil {
			continue
		}
		if !found || portfolio.ReviewedAt.After(*latest.ReviewedAt) {
			latest = portfolio
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) AdjustTally(_ context.Context, portfolioID string, delta ledgerentities.TallyDelta) (ledgerentities.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, ok := s.portfolios[strings.TrimSpace(portfolioID)]
	if !ok {
		return ledgerentities.Tally{}, domainerrors.ErrPortfolioNotFound
	}
	portfolio.Tally = portfolio.Tally.Apply(delta)
	s.portfolios[portfolio.PortfolioID] = portfolio
	return portfolio.Tally, nil
}

func (s *Store) TransitionStatus(
	_ context.Context,
	portfolioID string,
	from entities.Status,
	to entities.Status,
	patch ports.StatusPatch,
	now time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, ok := s.portfolios[strings.TrimSpace(portfolioID)]
	if !ok {
		return false, domainerrors.ErrPortfolioNotFound
	}
	if portfolio.Status != from {
		return false, nil
	}
	portfolio.Status = to
	portfolio.UpdatedAt = now
	if patch.VotingDeadline != nil {
		deadline := *patch.VotingDeadline
		portfolio.VotingDeadline = &deadline
	}
	if patch.ReviewedAt != nil {
		stamp := *patch.ReviewedAt
		portfolio.ReviewedAt = &stamp
	}
	if patch.ReviewerID != "" {
		portfolio.ReviewerID = patch.ReviewerID
	}
	if patch.ReviewFeedback != "" {
		portfolio.ReviewFeedback = patch.ReviewFeedback
	}
	s.portfolios[portfolio.PortfolioID] = portfolio
	return true, nil
}

func (s *Store) SetScore(_ context.Context, portfolioID string, score int, feedback string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, ok := s.portfolios[strings.TrimSpace(portfolioID)]
	if !ok {
		return domainerrors.ErrPortfolioNotFound
	}
	value := score
	portfolio.Score = &value
	portfolio.ScoreFeedback = feedback
	portfolio.UpdatedAt = now
	s.portfolios[portfolio.PortfolioID] = portfolio
	return nil
}

func (s *Store) AppendHistory(_ context.Context, record entities.PromotionHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, record)
	return nil
}

func (s *Store) ListHistory(_ context.Context, memberID string) ([]entities.PromotionHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.PromotionHistory, 0)
	for _, record := range s.history {
		if record.MemberID == strings.TrimSpace(memberID) {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].PromotedAt.Before(items[j].PromotedAt)
	})
	return items, nil
}

func (s *Store) ListByStatus(_ context.Context, status entities.Status, limit int, offset int) ([]entities.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Portfolio, 0)
	for _, portfolio := range s.portfolios {
		if portfolio.Status == status {
			items = append(items, portfolio)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].PortfolioID < items[j].PortfolioID
	})

	if offset >= len(items) {
		return []entities.Portfolio{}, nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
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

func (s *Store) Outbox() []events.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Envelope(nil), s.outbox...)
}

func (s *Store) History() []entities.PromotionHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.PromotionHistory(nil), s.history...)
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
