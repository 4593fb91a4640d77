package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/governance-core/contribution-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/contribution-workflow/domain/errors"
	"concord/contexts/governance-core/contribution-workflow/ports"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	"concord/internal/shared/events"
	"concord/internal/shared/outbox"

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
	return []any{&contributionModel{}, &contributionVoteModel{}, &outboxModel{}}
}

func (r *Repository) SaveContribution(ctx context.Context, contribution entities.Contribution) error {
	row := contributionModelFromEntity(contribution)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":       row.Title,
			"content_url": row.ContentURL,
			"category":    row.Category,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("contribution_repo_save_failed", create.Error,
			"contribution_id", contribution.ContributionID,
		)
	}
	return nil
}

func (r *Repository) GetContribution(ctx context.Context, contributionID string) (entities.Contribution, error) {
	var row contributionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(contributionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Contribution{}, domainerrors.ErrContributionNotFound
		}
		return entities.Contribution{}, r.logError("contribution_repo_get_failed", err,
			"contribution_id", strings.TrimSpace(contributionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) OldestCreatedSince(ctx context.Context, authorID string, cutoff time.Time) (time.Time, bool, error) {
	var row contributionModel
	err := r.db.WithContext(ctx).
		Where("author_id = ?", strings.TrimSpace(authorID)).
		Where("created_at >= ?", cutoff).
		Order("created_at ASC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, r.logError("contribution_repo_oldest_recent_failed", err,
			"author_id", strings.TrimSpace(authorID),
		)
	}
	return row.CreatedAt, true, nil
}

func (r *Repository) AdjustTally(ctx context.Context, contributionID string, delta ledgerentities.TallyDelta) (ledgerentities.Tally, error) {
	update := r.db.WithContext(ctx).Model(&contributionModel{}).
		Where("id = ?", strings.TrimSpace(contributionID)).
		Updates(map[string]any{
			"upvotes":   gorm.Expr("upvotes + ?", delta.Approve),
			"downvotes": gorm.Expr("downvotes + ?", delta.Reject),
		})
	if update.Error != nil {
		return ledgerentities.Tally{}, r.logError("contribution_repo_adjust_tally_failed", update.Error,
			"contribution_id", strings.TrimSpace(contributionID),
		)
	}
	if update.RowsAffected == 0 {
		return ledgerentities.Tally{}, domainerrors.ErrContributionNotFound
	}

	var row contributionModel
	if err := r.db.WithContext(ctx).
		Select("upvotes", "downvotes").
		Where("id = ?", strings.TrimSpace(contributionID)).
		First(&row).Error; err != nil {
		return ledgerentities.Tally{}, r.logError("contribution_repo_read_tally_failed", err,
			"contribution_id", strings.TrimSpace(contributionID),
		)
	}
	return ledgerentities.Tally{Approve: row.Upvotes, Reject: row.Downvotes}, nil
}

// TransitionStatus relies on a conditional UPDATE: only one caller observes
// RowsAffected == 1 for a given from→to edge.
func (r *Repository) TransitionStatus(
	ctx context.Context,
	contributionID string,
	from entities.Status,
	to entities.Status,
	approvedAt *time.Time,
	now time.Time,
) (bool, error) {
	assignments := map[string]any{
		"status":     string(to),
		"updated_at": now,
	}
	if approvedAt != nil {
		assignments["approved_at"] = *approvedAt
	}
	update := r.db.WithContext(ctx).Model(&contributionModel{}).
		Where("id = ?", strings.TrimSpace(contributionID)).
		Where("status = ?", string(from)).
		Updates(assignments)
	if update.Error != nil {
		return false, r.logError("contribution_repo_transition_failed", update.Error,
			"contribution_id", strings.TrimSpace(contributionID),
			"from", string(from),
			"to", string(to),
		)
	}
	return update.RowsAffected > 0, nil
}

func (r *Repository) SetFeatured(ctx context.Context, contributionID string, featured bool, now time.Time) error {
	update := r.db.WithContext(ctx).Model(&contributionModel{}).
		Where("id = ?", strings.TrimSpace(contributionID)).
		Updates(map[string]any{"featured": featured, "updated_at": now})
	if update.Error != nil {
		return r.logError("contribution_repo_set_featured_failed", update.Error,
			"contribution_id", strings.TrimSpace(contributionID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrContributionNotFound
	}
	return nil
}

func (r *Repository) ListContributions(ctx context.Context, filter ports.ListFilter) ([]entities.Contribution, error) {
	tx := r.db.WithContext(ctx).Model(&contributionModel{})
	if filter.Category != "" {
		tx = tx.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	var rows []contributionModel
	if err := tx.Order("created_at DESC, id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error; err != nil {
		return nil, r.logError("contribution_repo_list_failed", err)
	}
	items := make([]entities.Contribution, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveVote(ctx context.Context, vote ledgerentities.Vote) error {
	row := contributionVoteModel{
		ID:        vote.VoteID,
		SubjectID: vote.SubjectID,
		VoterID:   vote.VoterID,
		Kind:      string(vote.Kind),
		Reason:    vote.Reason,
		CreatedAt: vote.CreatedAt,
		UpdatedAt: vote.UpdatedAt,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"kind":       row.Kind,
			"reason":     row.Reason,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrInvalidState
		}
		return r.logError("contribution_repo_save_vote_failed", create.Error,
			"vote_id", vote.VoteID,
			"subject_id", vote.SubjectID,
		)
	}
	return nil
}

func (r *Repository) GetVoteByIdentity(ctx context.Context, subjectID string, voterID string) (ledgerentities.Vote, bool, error) {
	var row contributionVoteModel
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", strings.TrimSpace(subjectID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgerentities.Vote{}, false, nil
		}
		return ledgerentities.Vote{}, false, r.logError("contribution_repo_get_vote_failed", err,
			"subject_id", strings.TrimSpace(subjectID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesBySubject(ctx context.Context, subjectID string) ([]ledgerentities.Vote, error) {
	var rows []contributionVoteModel
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", strings.TrimSpace(subjectID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("contribution_repo_list_votes_failed", err,
			"subject_id", strings.TrimSpace(subjectID),
		)
	}
	items := make([]ledgerentities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:        envelope.EventID,
		EventType: envelope.EventType,
		Payload:   payload,
		Status:    outbox.StatusPending,
		CreatedAt: envelope.OccurredAtUTC,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("contribution_repo_append_outbox_failed", err,
			"event_id", envelope.EventID,
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance-core/contribution-workflow",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("contribution repository operation failed", fields...)
	return err
}

type contributionModel struct {
	ID         string     `gorm:"column:id;primaryKey"`
	AuthorID   string     `gorm:"column:author_id;index"`
	Title      string     `gorm:"column:title"`
	ContentURL string     `gorm:"column:content_url"`
	Category   string     `gorm:"column:category;index"`
	Status     string     `gorm:"column:status;index"`
	Featured   bool       `gorm:"column:featured"`
	Upvotes    int        `gorm:"column:upvotes"`
	Downvotes  int        `gorm:"column:downvotes"`
	ApprovedAt *time.Time `gorm:"column:approved_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (contributionModel) TableName() string {
	return "contributions"
}

func contributionModelFromEntity(c entities.Contribution) contributionModel {
	return contributionModel{
		ID:         c.ContributionID,
		AuthorID:   c.AuthorID,
		Title:      c.Title,
		ContentURL: c.ContentURL,
		Category:   c.Category,
		Status:     string(c.Status),
		Featured:   c.Featured,
		Upvotes:    c.Tally.Approve,
		Downvotes:  c.Tally.Reject,
		ApprovedAt: c.ApprovedAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (m contributionModel) toEntity() entities.Contribution {
	return entities.Contribution{
		ContributionID: m.ID,
		AuthorID:       m.AuthorID,
		Title:          m.Title,
		ContentURL:     m.ContentURL,
		Category:       m.Category,
		Status:         entities.Status(m.Status),
		Featured:       m.Featured,
		Tally:          ledgerentities.Tally{Approve: m.Upvotes, Reject: m.Downvotes},
		ApprovedAt:     m.ApprovedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type contributionVoteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	SubjectID string    `gorm:"column:subject_id;uniqueIndex:idx_contribution_vote_identity"`
	VoterID   string    `gorm:"column:voter_id;uniqueIndex:idx_contribution_vote_identity"`
	Kind      string    `gorm:"column:kind"`
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (contributionVoteModel) TableName() string {
	return "contribution_votes"
}

func (m contributionVoteModel) toEntity() ledgerentities.Vote {
	return ledgerentities.Vote{
		VoteID:      m.ID,
		SubjectKind: ledgerentities.SubjectKindContribution,
		SubjectID:   m.SubjectID,
		VoterID:     m.VoterID,
		Kind:        ledgerentities.VoteKind(m.Kind),
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type outboxModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	EventType  string    `gorm:"column:event_type"`
	Payload    []byte    `gorm:"column:payload"`
	Status     string    `gorm:"column:status;index"`
	RetryCount int       `gorm:"column:retry_count"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
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
