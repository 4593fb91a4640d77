package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/governance-core/nomination-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/nomination-workflow/domain/errors"
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
	return []any{&nominationModel{}, &nominationVoteModel{}}
}

func (r *Repository) SaveNomination(ctx context.Context, nomination entities.Nomination) error {
	row := nominationModelFromEntity(nomination)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"reason":     row.Reason,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("nomination_repo_save_failed", create.Error,
			"nomination_id", nomination.NominationID,
		)
	}
	return nil
}

func (r *Repository) GetNomination(ctx context.Context, nominationID string) (entities.Nomination, error) {
	var row nominationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(nominationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Nomination{}, domainerrors.ErrNominationNotFound
		}
		return entities.Nomination{}, r.logError("nomination_repo_get_failed", err,
			"nomination_id", strings.TrimSpace(nominationID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) AdjustTally(ctx context.Context, nominationID string, delta ledgerentities.TallyDelta) (ledgerentities.Tally, error) {
	update := r.db.WithContext(ctx).Model(&nominationModel{}).
		Where("id = ?", strings.TrimSpace(nominationID)).
		Updates(map[string]any{
			"approve_count": gorm.Expr("approve_count + ?", delta.Approve),
			"reject_count":  gorm.Expr("reject_count + ?", delta.Reject),
		})
	if update.Error != nil {
		return ledgerentities.Tally{}, r.logError("nomination_repo_adjust_tally_failed", update.Error,
			"nomination_id", strings.TrimSpace(nominationID),
		)
	}
	if update.RowsAffected == 0 {
		return ledgerentities.Tally{}, domainerrors.ErrNominationNotFound
	}

	var row nominationModel
	if err := r.db.WithContext(ctx).
		Select("approve_count", "reject_count").
		Where("id = ?", strings.TrimSpace(nominationID)).
		First(&row).Error; err != nil {
		return ledgerentities.Tally{}, r.logError("nomination_repo_read_tally_failed", err,
			"nomination_id", strings.TrimSpace(nominationID),
		)
	}
	return ledgerentities.Tally{Approve: row.ApproveCount, Reject: row.RejectCount}, nil
}

func (r *Repository) TransitionStatus(
	ctx context.Context,
	nominationID string,
	from entities.Status,
	to entities.Status,
	finalizedAt time.Time,
) (bool, error) {
	assignments := map[string]any{
		"status":     string(to),
		"updated_at": finalizedAt,
	}
	if to.Terminal() {
		assignments["finalized_at"] = finalizedAt
	}
	update := r.db.WithContext(ctx).Model(&nominationModel{}).
		Where("id = ?", strings.TrimSpace(nominationID)).
		Where("status = ?", string(from)).
		Updates(assignments)
	if update.Error != nil {
		return false, r.logError("nomination_repo_transition_failed", update.Error,
			"nomination_id", strings.TrimSpace(nominationID),
			"from", string(from),
			"to", string(to),
		)
	}
	return update.RowsAffected > 0, nil
}

func (r *Repository) SetProcessedMarker(ctx context.Context, nominationID string, messageRef string, channelRef string, now time.Time) error {
	update := r.db.WithContext(ctx).Model(&nominationModel{}).
		Where("id = ?", strings.TrimSpace(nominationID)).
		Updates(map[string]any{
			"message_ref": messageRef,
			"channel_ref": channelRef,
			"updated_at":  now,
		})
	if update.Error != nil {
		return r.logError("nomination_repo_mark_processed_failed", update.Error,
			"nomination_id", strings.TrimSpace(nominationID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrNominationNotFound
	}
	return nil
}

func (r *Repository) ListPending(ctx context.Context, onlyUnprocessed bool, limit int, offset int) ([]entities.Nomination, error) {
	tx := r.db.WithContext(ctx).Model(&nominationModel{}).
		Where("status = ?", string(entities.StatusPending))
	if onlyUnprocessed {
		tx = tx.Where("message_ref = ''")
	}
	var rows []nominationModel
	if err := tx.Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, r.logError("nomination_repo_list_pending_failed", err)
	}
	items := make([]entities.Nomination, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveVote(ctx context.Context, vote ledgerentities.Vote) error {
	row := nominationVoteModel{
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
		return r.logError("nomination_repo_save_vote_failed", create.Error,
			"vote_id", vote.VoteID,
			"subject_id", vote.SubjectID,
		)
	}
	return nil
}

func (r *Repository) GetVoteByIdentity(ctx context.Context, subjectID string, voterID string) (ledgerentities.Vote, bool, error) {
	var row nominationVoteModel
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", strings.TrimSpace(subjectID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgerentities.Vote{}, false, nil
		}
		return ledgerentities.Vote{}, false, r.logError("nomination_repo_get_vote_failed", err,
			"subject_id", strings.TrimSpace(subjectID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesBySubject(ctx context.Context, subjectID string) ([]ledgerentities.Vote, error) {
	var rows []nominationVoteModel
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", strings.TrimSpace(subjectID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("nomination_repo_list_votes_failed", err,
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
		return r.logError("nomination_repo_append_outbox_failed", err,
			"event_id", envelope.EventID,
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance-core/nomination-workflow",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("nomination repository operation failed", fields...)
	return err
}

type nominationModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	NominatorID       string     `gorm:"column:nominator_id;index"`
	NomineeID         string     `gorm:"column:nominee_id;index"`
	TargetRole        string     `gorm:"column:target_role"`
	Reason            string     `gorm:"column:reason"`
	Status            string     `gorm:"column:status;index"`
	ApproveCount      int        `gorm:"column:approve_count"`
	RejectCount       int        `gorm:"column:reject_count"`
	LinkedPromotionID string     `gorm:"column:linked_promotion_id"`
	MessageRef        string     `gorm:"column:message_ref"`
	ChannelRef        string     `gorm:"column:channel_ref"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
	FinalizedAt       *time.Time `gorm:"column:finalized_at"`
}

func (nominationModel) TableName() string {
	return "nominations"
}

func nominationModelFromEntity(n entities.Nomination) nominationModel {
	return nominationModel{
		ID:                n.NominationID,
		NominatorID:       n.NominatorID,
		NomineeID:         n.NomineeID,
		TargetRole:        n.TargetRole,
		Reason:            n.Reason,
		Status:            string(n.Status),
		ApproveCount:      n.Tally.Approve,
		RejectCount:       n.Tally.Reject,
		LinkedPromotionID: n.LinkedPromotionID,
		MessageRef:        n.MessageRef,
		ChannelRef:        n.ChannelRef,
		CreatedAt:         n.CreatedAt,
		UpdatedAt:         n.UpdatedAt,
		FinalizedAt:       n.FinalizedAt,
	}
}

func (m nominationModel) toEntity() entities.Nomination {
	return entities.Nomination{
		NominationID:      m.ID,
		NominatorID:       m.NominatorID,
		NomineeID:         m.NomineeID,
		TargetRole:        m.TargetRole,
		Reason:            m.Reason,
		Status:            entities.Status(m.Status),
		Tally:             ledgerentities.Tally{Approve: m.ApproveCount, Reject: m.RejectCount},
		LinkedPromotionID: m.LinkedPromotionID,
		MessageRef:        m.MessageRef,
		ChannelRef:        m.ChannelRef,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		FinalizedAt:       m.FinalizedAt,
	}
}

type nominationVoteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	SubjectID string    `gorm:"column:subject_id;uniqueIndex:idx_nomination_vote_identity"`
	VoterID   string    `gorm:"column:voter_id;uniqueIndex:idx_nomination_vote_identity"`
	Kind      string    `gorm:"column:kind"`
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (nominationVoteModel) TableName() string {
	return "nomination_votes"
}

func (m nominationVoteModel) toEntity() ledgerentities.Vote {
	return ledgerentities.Vote{
		VoteID:      m.ID,
		SubjectKind: ledgerentities.SubjectKindNomination,
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
