package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/governance-core/promotion-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/promotion-workflow/domain/errors"
	"concord/contexts/governance-core/promotion-workflow/ports"
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
	return []any{&portfolioModel{}, &promotionHistoryModel{}, &promotionVoteModel{}, &outboxModel{}}
}

func (r *Repository) SavePortfolio(ctx context.Context, portfolio entities.Portfolio) error {
	row := portfolioModelFromEntity(portfolio)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"handle":        row.Handle,
			"portfolio_url": row.PortfolioURL,
			"summary":       row.Summary,
			"updated_at":    row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrActivePortfolioExists
		}
		return r.logError("promotion_repo_save_failed", create.Error,
			"portfolio_id", portfolio.PortfolioID,
		)
	}
	return nil
}

func (r *Repository) GetPortfolio(ctx context.Context, portfolioID string) (entities.Portfolio, error) {
	var row portfolioModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(portfolioID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Portfolio{}, domainerrors.ErrPortfolioNotFound
		}
		return entities.Portfolio{}, r.logError("promotion_repo_get_failed", err,
			"portfolio_id", strings.TrimSpace(portfolioID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetActivePortfolio(ctx context.Context, memberID string) (entities.Portfolio, bool, error) {
	var row portfolioModel
	err := r.db.WithContext(ctx).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Where("status IN ?", []string{string(entities.StatusDraft), string(entities.StatusSubmitted)}).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Portfolio{}, false, nil
		}
		return entities.Portfolio{}, false, r.logError("promotion_repo_get_active_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) LatestRejected(ctx context.Context, memberID string) (entities.Portfolio, bool, error) {
	var row portfolioModel
	err := r.db.WithContext(ctx).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Where("status = ?", string(entities.StatusRejected)).
		Where("reviewed_at IS NOT NULL").
		Order("reviewed_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Portfolio{}, false, nil
		}
		return entities.Portfolio{}, false, r.logError("promotion_repo_latest_rejected_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) AdjustTally(ctx context.Context, portfolioID string, delta ledgerentities.TallyDelta) (ledgerentities.Tally, error) {
	update := r.db.WithContext(ctx).Model(&portfolioModel{}).
		Where("id = ?", strings.TrimSpace(portfolioID)).
		Updates(map[string]any{
			"approve_count": gorm.Expr("approve_count + ?", delta.Approve),
			"reject_count":  gorm.Expr("reject_count + ?", delta.Reject),
		})
	if update.Error != nil {
		return ledgerentities.Tally{}, r.logError("promotion_repo_adjust_tally_failed", update.Error,
			"portfolio_id", strings.TrimSpace(portfolioID),
		)
	}
	if update.RowsAffected == 0 {
		return ledgerentities.Tally{}, domainerrors.ErrPortfolioNotFound
	}

	var row portfolioModel
	if err := r.db.WithContext(ctx).
		Select("approve_count", "reject_count").
		Where("id = ?", strings.TrimSpace(portfolioID)).
		First(&row).Error; err != nil {
		return ledgerentities.Tally{}, r.logError("promotion_repo_read_tally_failed", err,
			"portfolio_id", strings.TrimSpace(portfolioID),
		)
	}
	return ledgerentities.Tally{Approve: row.ApproveCount, Reject: row.RejectCount}, nil
}

// TransitionStatus relies on a conditional UPDATE: only one caller observes
// RowsAffected == 1 for a given from→to edge.
func (r *Repository) TransitionStatus(
	ctx context.Context,
	portfolioID string,
	from entities.Status,
	to entities.Status,
	patch ports.StatusPatch,
	now time.Time,
) (bool, error) {
	assignments := map[string]any{
		"status":     string(to),
		"updated_at": now,
	}
	if patch.VotingDeadline != nil {
		assignments["voting_deadline"] = *patch.VotingDeadline
	}
	if patch.ReviewedAt != nil {
		assignments["reviewed_at"] = *patch.ReviewedAt
	}
	if patch.ReviewerID != "" {
		assignments["reviewer_id"] = patch.ReviewerID
	}
	if patch.ReviewFeedback != "" {
		assignments["review_feedback"] = patch.ReviewFeedback
	}
	update := r.db.WithContext(ctx).Model(&portfolioModel{}).
		Where("id = ?", strings.TrimSpace(portfolioID)).
		Where("status = ?", string(from)).
		Updates(assignments)
	if update.Error != nil {
		return false, r.logError("promotion_repo_transition_failed", update.Error,
			"portfolio_id", strings.TrimSpace(portfolioID),
			"from", string(from),
			"to", string(to),
		)
	}
	return update.RowsAffected > 0, nil
}

func (r *Repository) SetScore(ctx context.Context, portfolioID string, score int, feedback string, now time.Time) error {
	update := r.db.WithContext(ctx).Model(&portfolioModel{}).
		Where("id = ?", strings.TrimSpace(portfolioID)).
		Updates(map[string]any{
			"score":          score,
			"score_feedback": feedback,
			"updated_at":     now,
		})
	if update.Error != nil {
		return r.logError("promotion_repo_set_score_failed", update.Error,
			"portfolio_id", strings.TrimSpace(portfolioID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrPortfolioNotFound
	}
	return nil
}

func (r *Repository) AppendHistory(ctx context.Context, record entities.PromotionHistory) error {
	row := promotionHistoryModel{
		ID:          record.HistoryID,
		MemberID:    record.MemberID,
		PortfolioID: record.PortfolioID,
		FromRole:    record.FromRole,
		ToRole:      record.ToRole,
		PromotedAt:  record.PromotedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("promotion_repo_append_history_failed", err,
			"history_id", record.HistoryID,
			"member_id", record.MemberID,
		)
	}
	return nil
}

func (r *Repository) ListHistory(ctx context.Context, memberID string) ([]entities.PromotionHistory, error) {
	var rows []promotionHistoryModel
	if err := r.db.WithContext(ctx).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Order("promoted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("promotion_repo_list_history_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	items := make([]entities.PromotionHistory, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.PromotionHistory{
			HistoryID:   row.ID,
			MemberID:    row.MemberID,
			PortfolioID: row.PortfolioID,
			FromRole:    row.FromRole,
			ToRole:      row.ToRole,
			PromotedAt:  row.PromotedAt,
		})
	}
	return items, nil
}

func (r *Repository) ListByStatus(ctx context.Context, status entities.Status, limit int, offset int) ([]entities.Portfolio, error) {
	var rows []portfolioModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, r.logError("promotion_repo_list_failed", err,
			"status", string(status),
		)
	}
	items := make([]entities.Portfolio, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveVote(ctx context.Context, vote ledgerentities.Vote) error {
	row := promotionVoteModel{
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
		return r.logError("promotion_repo_save_vote_failed", create.Error,
			"vote_id", vote.VoteID,
			"subject_id", vote.SubjectID,
		)
	}
	return nil
}

func (r *Repository) GetVoteByIdentity(ctx context.Context, subjectID string, voterID string) (ledgerentities.Vote, bool, error) {
	var row promotionVoteModel
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", strings.TrimSpace(subjectID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgerentities.Vote{}, false, nil
		}
		return ledgerentities.Vote{}, false, r.logError("promotion_repo_get_vote_failed", err,
			"subject_id", strings.TrimSpace(subjectID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesBySubject(ctx context.Context, subjectID string) ([]ledgerentities.Vote, error) {
	var rows []promotionVoteModel
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", strings.TrimSpace(subjectID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("promotion_repo_list_votes_failed", err,
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
		return r.logError("promotion_repo_append_outbox_failed", err,
			"event_id", envelope.EventID,
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance-core/promotion-workflow",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("promotion repository operation failed", fields...)
	return err
}

// The partial unique index backs the one-active-portfolio rule across
// processes; in-process creates serialize on the member lock.
type portfolioModel struct {
	ID             string     `gorm:"column:id;primaryKey"`
	MemberID       string     `gorm:"column:member_id;index;uniqueIndex:ux_promotion_active_member,where:status = 'draft' OR status = 'submitted'"`
	Handle         string     `gorm:"column:handle"`
	GuildName      string     `gorm:"column:guild_name;index"`
	CurrentRole    string     `gorm:"column:current_role"`
	TargetRole     string     `gorm:"column:target_role"`
	TargetTier     int        `gorm:"column:target_tier"`
	PortfolioURL   string     `gorm:"column:portfolio_url"`
	Summary        string     `gorm:"column:summary"`
	Status         string     `gorm:"column:status;index"`
	ApproveCount   int        `gorm:"column:approve_count"`
	RejectCount    int        `gorm:"column:reject_count"`
	Score          *int       `gorm:"column:score"`
	ScoreFeedback  string     `gorm:"column:score_feedback"`
	ReviewerID     string     `gorm:"column:reviewer_id"`
	ReviewFeedback string     `gorm:"column:review_feedback"`
	VotingDeadline *time.Time `gorm:"column:voting_deadline"`
	ReviewedAt     *time.Time `gorm:"column:reviewed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (portfolioModel) TableName() string {
	return "promotion_portfolios"
}

func portfolioModelFromEntity(p entities.Portfolio) portfolioModel {
	return portfolioModel{
		ID:             p.PortfolioID,
		MemberID:       p.MemberID,
		Handle:         p.Handle,
		GuildName:      p.GuildName,
		CurrentRole:    p.CurrentRole,
		TargetRole:     p.TargetRole,
		TargetTier:     p.TargetTier,
		PortfolioURL:   p.PortfolioURL,
		Summary:        p.Summary,
		Status:         string(p.Status),
		ApproveCount:   p.Tally.Approve,
		RejectCount:    p.Tally.Reject,
		Score:          p.Score,
		ScoreFeedback:  p.ScoreFeedback,
		ReviewerID:     p.ReviewerID,
		ReviewFeedback: p.ReviewFeedback,
		VotingDeadline: p.VotingDeadline,
		ReviewedAt:     p.ReviewedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (m portfolioModel) toEntity() entities.Portfolio {
	return entities.Portfolio{
		PortfolioID:    m.ID,
		MemberID:       m.MemberID,
		Handle:         m.Handle,
		GuildName:      m.GuildName,
		CurrentRole:    m.CurrentRole,
		TargetRole:     m.TargetRole,
		TargetTier:     m.TargetTier,
		PortfolioURL:   m.PortfolioURL,
		Summary:        m.Summary,
		Status:         entities.Status(m.Status),
		Tally:          ledgerentities.Tally{Approve: m.ApproveCount, Reject: m.RejectCount},
		Score:          m.Score,
		ScoreFeedback:  m.ScoreFeedback,
		ReviewerID:     m.ReviewerID,
		ReviewFeedback: m.ReviewFeedback,
		VotingDeadline: m.VotingDeadline,
		ReviewedAt:     m.ReviewedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type promotionHistoryModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	MemberID    string    `gorm:"column:member_id;index"`
	PortfolioID string    `gorm:"column:portfolio_id;uniqueIndex"`
	FromRole    string    `gorm:"column:from_role"`
	ToRole      string    `gorm:"column:to_role"`
	PromotedAt  time.Time `gorm:"column:promoted_at"`
}

func (promotionHistoryModel) TableName() string {
	return "promotion_history"
}

type promotionVoteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	SubjectID string    `gorm:"column:subject_id;uniqueIndex:idx_promotion_vote_identity"`
	VoterID   string    `gorm:"column:voter_id;uniqueIndex:idx_promotion_vote_identity"`
	Kind      string    `gorm:"column:kind"`
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (promotionVoteModel) TableName() string {
	return "promotion_votes"
}

func (m promotionVoteModel) toEntity() ledgerentities.Vote {
	return ledgerentities.Vote{
		VoteID:      m.ID,
		SubjectKind: ledgerentities.SubjectKindPromotion,
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
