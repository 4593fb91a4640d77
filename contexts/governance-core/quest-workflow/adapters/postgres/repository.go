package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/governance-core/quest-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/quest-workflow/domain/errors"
	"concord/contexts/governance-core/quest-workflow/ports"

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

func Models() []any {
	return []any{&questModel{}, &questSubmissionModel{}}
}

func (r *Repository) SaveQuest(ctx context.Context, quest entities.Quest) error {
	row := questModelFromEntity(quest)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":       row.Title,
			"description": row.Description,
			"points":      row.Points,
			"deadline":    row.Deadline,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("quest_repo_save_failed", create.Error,
			"quest_id", quest.QuestID,
		)
	}
	return nil
}

func (r *Repository) GetQuest(ctx context.Context, questID string) (entities.Quest, error) {
	var row questModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(questID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Quest{}, domainerrors.ErrQuestNotFound
		}
		return entities.Quest{}, r.logError("quest_repo_get_failed", err,
			"quest_id", strings.TrimSpace(questID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SetQuestActive(ctx context.Context, questID string, active bool, now time.Time) error {
	update := r.db.WithContext(ctx).Model(&questModel{}).
		Where("id = ?", strings.TrimSpace(questID)).
		Updates(map[string]any{"active": active, "updated_at": now})
	if update.Error != nil {
		return r.logError("quest_repo_set_active_failed", update.Error,
			"quest_id", strings.TrimSpace(questID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrQuestNotFound
	}
	return nil
}

func (r *Repository) ListQuests(ctx context.Context, guildName string, activeOnly bool, limit int, offset int) ([]entities.Quest, error) {
	tx := r.db.WithContext(ctx).Model(&questModel{})
	if guildName != "" {
		tx = tx.Where("guild_name = ?", guildName)
	}
	if activeOnly {
		tx = tx.Where("active = ?", true)
	}
	var rows []questModel
	if err := tx.Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, r.logError("quest_repo_list_failed", err)
	}
	items := make([]entities.Quest, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveSubmission(ctx context.Context, submission entities.Submission) error {
	row := submissionModelFromEntity(submission)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrPendingSubmissionExists
		}
		return r.logError("quest_repo_save_submission_failed", err,
			"submission_id", submission.SubmissionID,
			"quest_id", submission.QuestID,
		)
	}
	return nil
}

func (r *Repository) GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error) {
	var row questSubmissionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(submissionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Submission{}, domainerrors.ErrSubmissionNotFound
		}
		return entities.Submission{}, r.logError("quest_repo_get_submission_failed", err,
			"submission_id", strings.TrimSpace(submissionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) HasPendingSubmission(ctx context.Context, questID string, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&questSubmissionModel{}).
		Where("quest_id = ?", strings.TrimSpace(questID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Where("status = ?", string(entities.SubmissionPending)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("quest_repo_pending_check_failed", err,
			"quest_id", strings.TrimSpace(questID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return count > 0, nil
}

// TransitionSubmissionStatus relies on a conditional UPDATE: only one
// reviewer observes RowsAffected == 1.
func (r *Repository) TransitionSubmissionStatus(
	ctx context.Context,
	submissionID string,
	from entities.SubmissionStatus,
	to entities.SubmissionStatus,
	reviewerID string,
	feedback string,
	now time.Time,
) (bool, error) {
	update := r.db.WithContext(ctx).Model(&questSubmissionModel{}).
		Where("id = ?", strings.TrimSpace(submissionID)).
		Where("status = ?", string(from)).
		Updates(map[string]any{
			"status":      string(to),
			"reviewer_id": reviewerID,
			"feedback":    feedback,
			"reviewed_at": now,
			"updated_at":  now,
		})
	if update.Error != nil {
		return false, r.logError("quest_repo_transition_failed", update.Error,
			"submission_id", strings.TrimSpace(submissionID),
			"from", string(from),
			"to", string(to),
		)
	}
	return update.RowsAffected > 0, nil
}

func (r *Repository) ListSubmissions(ctx context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	tx := r.db.WithContext(ctx).Model(&questSubmissionModel{})
	if filter.QuestID != "" {
		tx = tx.Where("quest_id = ?", filter.QuestID)
	}
	if filter.MemberID != "" {
		tx = tx.Where("member_id = ?", filter.MemberID)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	var rows []questSubmissionModel
	if err := tx.Order("created_at ASC, id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error; err != nil {
		return nil, r.logError("quest_repo_list_submissions_failed", err)
	}
	items := make([]entities.Submission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance-core/quest-workflow",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("quest repository operation failed", fields...)
	return err
}

type questModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	GuildName   string     `gorm:"column:guild_name;index"`
	CreatorID   string     `gorm:"column:creator_id;index"`
	Title       string     `gorm:"column:title"`
	Description string     `gorm:"column:description"`
	Points      int        `gorm:"column:points"`
	Deadline    *time.Time `gorm:"column:deadline"`
	Active      bool       `gorm:"column:active;index"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (questModel) TableName() string {
	return "quests"
}

func questModelFromEntity(q entities.Quest) questModel {
	return questModel{
		ID:          q.QuestID,
		GuildName:   q.GuildName,
		CreatorID:   q.CreatorID,
		Title:       q.Title,
		Description: q.Description,
		Points:      q.Points,
		Deadline:    q.Deadline,
		Active:      q.Active,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (m questModel) toEntity() entities.Quest {
	return entities.Quest{
		QuestID:     m.ID,
		GuildName:   m.GuildName,
		CreatorID:   m.CreatorID,
		Title:       m.Title,
		Description: m.Description,
		Points:      m.Points,
		Deadline:    m.Deadline,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// The partial unique index allows one pending submission per (quest, member)
// while leaving settled rows unconstrained.
type questSubmissionModel struct {
	ID         string     `gorm:"column:id;primaryKey"`
	QuestID    string     `gorm:"column:quest_id;index;uniqueIndex:ux_quest_submission_pending,where:status = 'pending'"`
	MemberID   string     `gorm:"column:member_id;index;uniqueIndex:ux_quest_submission_pending,where:status = 'pending'"`
	WorkRef    string     `gorm:"column:work_ref"`
	Status     string     `gorm:"column:status;index"`
	ReviewerID string     `gorm:"column:reviewer_id"`
	Feedback   string     `gorm:"column:feedback"`
	ReviewedAt *time.Time `gorm:"column:reviewed_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (questSubmissionModel) TableName() string {
	return "quest_submissions"
}

func submissionModelFromEntity(s entities.Submission) questSubmissionModel {
	return questSubmissionModel{
		ID:         s.SubmissionID,
		QuestID:    s.QuestID,
		MemberID:   s.MemberID,
		WorkRef:    s.WorkRef,
		Status:     string(s.Status),
		ReviewerID: s.ReviewerID,
		Feedback:   s.Feedback,
		ReviewedAt: s.ReviewedAt,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func (m questSubmissionModel) toEntity() entities.Submission {
	return entities.Submission{
		SubmissionID: m.ID,
		QuestID:      m.QuestID,
		MemberID:     m.MemberID,
		WorkRef:      m.WorkRef,
		Status:       entities.SubmissionStatus(m.Status),
		ReviewerID:   m.ReviewerID,
		Feedback:     m.Feedback,
		ReviewedAt:   m.ReviewedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
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
