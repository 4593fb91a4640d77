package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/community-experience/member-service/domain/entities"
	domainerrors "concord/contexts/community-experience/member-service/domain/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// Models returns the gorm models this adapter owns, for automigration.
func Models() []any {
	return []any{&memberModel{}, &pointsLogModel{}}
}

func (r *Repository) UpsertMember(ctx context.Context, memberID string, displayName string, now time.Time) (entities.Member, error) {
	row := memberModel{
		ID:          strings.TrimSpace(memberID),
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	assignments := map[string]any{"updated_at": now}
	if displayName != "" {
		assignments["display_name"] = displayName
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row)
	if create.Error != nil {
		return entities.Member{}, r.logError("member_repo_upsert_failed", create.Error,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return r.GetMember(ctx, memberID)
}

func (r *Repository) GetMember(ctx context.Context, memberID string) (entities.Member, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, domainerrors.ErrMemberNotFound
		}
		return entities.Member{}, r.logError("member_repo_get_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) IncrementPoints(ctx context.Context, memberID string, delta int, now time.Time) (entities.Member, error) {
	update := r.db.WithContext(ctx).Model(&memberModel{}).
		Where("id = ?", strings.TrimSpace(memberID)).
		Updates(map[string]any{
			"points":     gorm.Expr("points + ?", delta),
			"updated_at": now,
		})
	if update.Error != nil {
		return entities.Member{}, r.logError("member_repo_increment_points_failed", update.Error,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	if update.RowsAffected == 0 {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	return r.GetMember(ctx, memberID)
}

func (r *Repository) AppendPointsLog(ctx context.Context, log entities.PointsLog) error {
	row := pointsLogModel{
		ID:        strings.TrimSpace(log.LogID),
		MemberID:  strings.TrimSpace(log.MemberID),
		Delta:     log.Delta,
		Reason:    log.Reason,
		CreatedAt: log.CreatedAt,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("member_repo_append_points_log_failed", err,
			"member_id", row.MemberID,
		)
	}
	return nil
}

func (r *Repository) ApplyRoleChange(ctx context.Context, memberID string, guildName string, archetype string, tier int, now time.Time) (entities.Member, error) {
	update := r.db.WithContext(ctx).Model(&memberModel{}).
		Where("id = ?", strings.TrimSpace(memberID)).
		Updates(map[string]any{
			"guild_name":     guildName,
			"archetype":      archetype,
			"tier":           tier,
			"last_active_at": now,
			"updated_at":     now,
		})
	if update.Error != nil {
		return entities.Member{}, r.logError("member_repo_role_change_failed", update.Error,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	if update.RowsAffected == 0 {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	return r.GetMember(ctx, memberID)
}

func (r *Repository) RecordQuestCompletion(ctx context.Context, memberID string, now time.Time) (entities.Member, error) {
	update := r.db.WithContext(ctx).Model(&memberModel{}).
		Where("id = ?", strings.TrimSpace(memberID)).
		Updates(map[string]any{
			"quests_completed": gorm.Expr("quests_completed + 1"),
			"last_active_at":   now,
			"updated_at":       now,
		})
	if update.Error != nil {
		return entities.Member{}, r.logError("member_repo_quest_completion_failed", update.Error,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	if update.RowsAffected == 0 {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	return r.GetMember(ctx, memberID)
}

func (r *Repository) CountGuildRole(ctx context.Context, guildName string, archetype string) (int, error) {
	tx := r.db.WithContext(ctx).Model(&memberModel{}).
		Where("guild_name = ?", guildName)
	if archetype != "" {
		tx = tx.Where("archetype = ?", archetype)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, r.logError("member_repo_count_guild_role_failed", err,
			"guild", guildName,
			"archetype", archetype,
		)
	}
	return int(count), nil
}

func (r *Repository) ListLeaderboard(ctx context.Context, limit int, offset int) ([]entities.LeaderboardEntry, error) {
	var rows []memberModel
	if err := r.db.WithContext(ctx).
		Order("points DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, r.logError("member_repo_leaderboard_failed", err)
	}
	entries := make([]entities.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, entities.LeaderboardEntry{
			MemberID:    row.ID,
			DisplayName: row.DisplayName,
			Points:      row.Points,
			Rank:        offset + i + 1,
		})
	}
	return entries, nil
}

func (r *Repository) Stats(ctx context.Context) (entities.Stats, error) {
	type agg struct {
		Members int64
		Points  int64
		Quests  int64
	}
	var result agg
	err := r.db.WithContext(ctx).Model(&memberModel{}).
		Select("COUNT(*) AS members, COALESCE(SUM(points), 0) AS points, COALESCE(SUM(quests_completed), 0) AS quests").
		Scan(&result).Error
	if err != nil {
		return entities.Stats{}, r.logError("member_repo_stats_failed", err)
	}
	return entities.Stats{
		TotalMembers:    int(result.Members),
		TotalPoints:     int(result.Points),
		QuestsCompleted: int(result.Quests),
	}, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-experience/member-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("member repository operation failed", fields...)
	return err
}

type memberModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	DisplayName     string    `gorm:"column:display_name"`
	Points          int       `gorm:"column:points"`
	GuildName       string    `gorm:"column:guild_name"`
	Archetype       string    `gorm:"column:archetype"`
	Tier            int       `gorm:"column:tier"`
	QuestsCompleted int       `gorm:"column:quests_completed"`
	LastActiveAt    time.Time `gorm:"column:last_active_at"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (memberModel) TableName() string {
	return "members"
}

func (m memberModel) toEntity() entities.Member {
	member := entities.Member{
		MemberID:    m.ID,
		DisplayName: m.DisplayName,
		Points:      m.Points,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.GuildName != "" || m.Archetype != "" {
		member.Guild = &entities.GuildAffiliation{
			GuildName:       m.GuildName,
			Archetype:       m.Archetype,
			Tier:            m.Tier,
			QuestsCompleted: m.QuestsCompleted,
			LastActiveAt:    m.LastActiveAt,
		}
	}
	return member
}

type pointsLogModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	MemberID  string    `gorm:"column:member_id;index"`
	Delta     int       `gorm:"column:delta"`
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (pointsLogModel) TableName() string {
	return "member_points_log"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
