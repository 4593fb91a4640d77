package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"concord/contexts/governance-core/nomination-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/nomination-workflow/domain/errors"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	"concord/internal/shared/events"

	"github.com/google/uuid"
)

type Store struct {
	mu          sync.RWMutex
	nominations map[string]entities.Nomination
	votes       map[string]ledgerentities.Vote
	outbox      []events.Envelope
}

func NewStore() *Store {
	return &Store{
		nominations: make(map[string]entities.Nomination),
		votes:       make(map[string]ledgerentities.Vote),
	}
}

func (s *Store) SaveNomination(_ context.Context, nomination entities.Nomination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nominations[nomination.NominationID] = nomination
	return nil
}

func (s *Store) GetNomination(_ context.Context, nominationID string) (entities.Nomination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nomination, ok := s.nominations[strings.TrimSpace(nominationID)]
	if !ok {
		return entities.Nomination{}, domainerrors.ErrNominationNotFound
	}
	return nomination, nil
}

func (s *Store) AdjustTally(_ context.Context, nominationID string, delta ledgerentities.TallyDelta) (ledgerentities.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nomination, ok := s.nominations[strings.TrimSpace(nominationID)]
	if !ok {
		return ledgerentities.Tally{}, domainerrors.ErrNominationNotFound
	}
	nomination.Tally = nomination.Tally.Apply(delta)
	s.nominations[nomination.NominationID] = nomination
	return nomination.Tally, nil
}

func (s *Store) TransitionStatus(
	_ context.Context,
	nominationID string,
	from entities.Status,
	to entities.Status,
	finalizedAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nomination, ok := s.nominations[strings.TrimSpace(nominationID)]
	if !ok {
		return false, domainerrors.ErrNominationNotFound
	}
	if nomination.Status != from {
		return false, nil
	}
	nomination.Status = to
	nomination.UpdatedAt = finalizedAt
	if to.Terminal() {
		stamp := finalizedAt
		nomination.FinalizedAt = &stamp
	}
	s.nominations[nomination.NominationID] = nomination
	return true, nil
}

func (s *Store) SetProcessedMarker(_ context.Context, nominationID string, messageRef string, channelRef string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nomination, ok := s.nominations[strings.TrimSpace(nominationID)]
	if !ok {
		return domainerrors.ErrNominationNotFound
	}
	nomination.MessageRef = messageRef
	nomination.ChannelRef = channelRef
	nomination.UpdatedAt = now
	s.nominations[nomination.NominationID] = nomination
	return nil
}

func (s *Store) ListPending(_ context.Context, onlyUnprocessed bool, limit int, offset int) ([]entities.Nomination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Nomination, 0)
	for _, nomination := range s.nominations {
		if nomination.Status != entities.StatusPending {
			continue
		}
		if onlyUnprocessed && nomination.Processed() {
			continue
		}
		items = append(items, nomination)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].NominationID < items[j].NominationID
	})

	if offset >= len(items) {
		return []entities.Nomination{}, nil
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

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
