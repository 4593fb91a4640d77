package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"concord/contexts/community-experience/member-service/domain/entities"
	domainerrors "concord/contexts/community-experience/member-service/domain/errors"

	"github.com/google/uuid"
)

type Store struct {
	mu        sync.RWMutex
	members   map[string]entities.Member
	pointsLog []entities.PointsLog
}

func NewStore() *Store {
	return &Store{members: make(map[string]entities.Member)}
}

func (s *Store) UpsertMember(_ context.Context, memberID string, displayName string, now time.Time) (entities.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memberID = strings.TrimSpace(memberID)
	member, ok := s.members[memberID]
	if !ok {
		member = entities.Member{
			MemberID:  memberID,
			CreatedAt: now,
		}
	}
	if displayName != "" {
		member.DisplayName = displayName
	}
	member.UpdatedAt = now
	s.members[memberID] = member
	return member, nil
}

func (s *Store) GetMember(_ context.Context, memberID string) (entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[strings.TrimSpace(memberID)]
	if !ok {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	return member, nil
}

func (s *Store) IncrementPoints(_ context.Context, memberID string, delta int, now time.Time) (entities.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[strings.TrimSpace(memberID)]
	if !ok {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	member.Points += delta
	member.UpdatedAt = now
	s.members[member.MemberID] = member
	return member, nil
}

func (s *Store) AppendPointsLog(_ context.Context, log entities.PointsLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(log.LogID) == "" {
		log.LogID = uuid.NewString()
	}
	s.pointsLog = append(s.pointsLog, log)
	return nil
}

func (s *Store) ApplyRoleChange(_ context.Context, memberID string, guildName string, archetype string, tier int, now time.Time) (entities.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[strings.TrimSpace(memberID)]
	if !ok {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	guild := entities.GuildAffiliation{}
	if member.Guild != nil {
		guild = *member.Guild
	}
	guild.GuildName = guildName
	guild.Archetype = archetype
	guild.Tier = tier
	guild.LastActiveAt = now
	member.Guild = &guild
	member.UpdatedAt = now
	s.members[member.MemberID] = member
	return member, nil
}

func (s *Store) RecordQuestCompletion(_ context.Context, memberID string, now time.Time) (entities.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[strings.TrimSpace(memberID)]
	if !ok {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	guild := entities.GuildAffiliation{}
	if member.Guild != nil {
		guild = *member.Guild
	}
	guild.QuestsCompleted++
	guild.LastActiveAt = now
	member.Guild = &guild
	member.UpdatedAt = now
	s.members[member.MemberID] = member
	return member, nil
}

func (s *Store) CountGuildRole(_ context.Context, guildName string, archetype string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, member := range s.members {
		if member.Guild == nil {
			continue
		}
		if !strings.EqualFold(member.Guild.GuildName, guildName) {
			continue
		}
		if archetype != "" && !strings.EqualFold(member.Guild.Archetype, archetype) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) ListLeaderboard(_ context.Context, limit int, offset int) ([]entities.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]entities.Member, 0, len(s.members))
	for _, member := range s.members {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Points != members[j].Points {
			return members[i].Points > members[j].Points
		}
		return members[i].MemberID < members[j].MemberID
	})

	entries := make([]entities.LeaderboardEntry, 0, limit)
	for i := offset; i < len(members) && len(entries) < limit; i++ {
		entries = append(entries, entities.LeaderboardEntry{
			MemberID:    members[i].MemberID,
			DisplayName: members[i].DisplayName,
			Points:      members[i].Points,
			Rank:        i + 1,
		})
	}
	return entries, nil
}

func (s *Store) Stats(_ context.Context) (entities.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := entities.Stats{TotalMembers: len(s.members)}
	for _, member := range s.members {
		stats.TotalPoints += member.Points
		if member.Guild != nil {
			stats.QuestsCompleted += member.Guild.QuestsCompleted
		}
	}
	return stats, nil
}

// SetGuild seeds a guild affiliation for tests and fixtures.
func (s *Store) SetGuild(memberID string, guild entities.GuildAffiliation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[strings.TrimSpace(memberID)]
	if !ok {
		return
	}
	member.Guild = &guild
	s.members[member.MemberID] = member
}

// SystemClock and UUIDGenerator are the default port implementations.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
