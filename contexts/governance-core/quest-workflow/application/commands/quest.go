package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"concord/contexts/governance-core/quest-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/quest-workflow/domain/errors"
	"concord/contexts/governance-core/quest-workflow/ports"
)

type CreateQuestCommand struct {
	CreatorID   string
	GuildName   string
	Title       string
	Description string
	Points      int
	Deadline    *time.Time
}

type SubmitCommand struct {
	QuestID  string
	MemberID string
	WorkRef  string
}

type ReviewCommand struct {
	SubmissionID string
	ReviewerID   string
	Approve      bool
	Feedback     string
}

type QuestUseCase struct {
	Repo    ports.Repository
	Members ports.MemberDirectory
	Awards  ports.QuestCompleter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// CreateQuest opens a quest immediately. There is no approval gate on quest
// creation.
func (uc QuestUseCase) CreateQuest(ctx context.Context, cmd CreateQuestCommand) (entities.Quest, error) {
	if strings.TrimSpace(cmd.CreatorID) == "" ||
		strings.TrimSpace(cmd.GuildName) == "" ||
		strings.TrimSpace(cmd.Title) == "" ||
		cmd.Points <= 0 {
		return entities.Quest{}, domainerrors.ErrInvalidQuestInput
	}

	now := uc.now()
	questID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Quest{}, err
	}
	quest := entities.Quest{
		QuestID:     questID,
		GuildName:   strings.TrimSpace(cmd.GuildName),
		CreatorID:   strings.TrimSpace(cmd.CreatorID),
		Title:       strings.TrimSpace(cmd.Title),
		Description: strings.TrimSpace(cmd.Description),
		Points:      cmd.Points,
		Deadline:    cmd.Deadline,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Repo.SaveQuest(ctx, quest); err != nil {
		return entities.Quest{}, err
	}

	resolveLogger(uc.Logger).Info("quest created",
		"event", "quest_created",
		"module", "governance-core/quest-workflow",
		"layer", "application",
		"quest_id", quest.QuestID,
		"guild_name", quest.GuildName,
		"points", quest.Points,
	)
	return quest, nil
}

// Submit records a member's work on an open quest. The member must belong to
// the quest's guild and may hold only one pending submission per quest.
func (uc QuestUseCase) Submit(ctx context.Context, cmd SubmitCommand) (entities.Submission, error) {
	if strings.TrimSpace(cmd.MemberID) == "" || strings.TrimSpace(cmd.WorkRef) == "" {
		return entities.Submission{}, domainerrors.ErrInvalidQuestInput
	}
	quest, err := uc.Repo.GetQuest(ctx, cmd.QuestID)
	if err != nil {
		return entities.Submission{}, err
	}

	now := uc.now()
	if !quest.Open(now) {
		return entities.Submission{}, domainerrors.ErrQuestClosed
	}

	memberID := strings.TrimSpace(cmd.MemberID)
	guild, found, err := uc.Members.MemberGuild(ctx, memberID)
	if err != nil {
		return entities.Submission{}, err
	}
	if !found || guild != quest.GuildName {
		return entities.Submission{}, domainerrors.ErrGuildMismatch
	}

	pending, err := uc.Repo.HasPendingSubmission(ctx, quest.QuestID, memberID)
	if err != nil {
		return entities.Submission{}, err
	}
	if pending {
		return entities.Submission{}, domainerrors.ErrPendingSubmissionExists
	}

	submissionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Submission{}, err
	}
	submission := entities.Submission{
		SubmissionID: submissionID,
		QuestID:      quest.QuestID,
		MemberID:     memberID,
		WorkRef:      strings.TrimSpace(cmd.WorkRef),
		Status:       entities.SubmissionPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Repo.SaveSubmission(ctx, submission); err != nil {
		return entities.Submission{}, err
	}

	resolveLogger(uc.Logger).Info("quest submission received",
		"event", "quest_submission_received",
		"module", "governance-core/quest-workflow",
		"layer", "application",
		"quest_id", quest.QuestID,
		"submission_id", submission.SubmissionID,
		"member_id", memberID,
	)
	return submission, nil
}

// Review settles a pending submission. Approval awards the quest's points
// exactly once; the compare-and-swap makes the losing reviewer of a race
// observe ErrInvalidState.
func (uc QuestUseCase) Review(ctx context.Context, cmd ReviewCommand) (entities.Submission, error) {
	if strings.TrimSpace(cmd.ReviewerID) == "" {
		return entities.Submission{}, domainerrors.ErrInvalidQuestInput
	}
	submission, err := uc.Repo.GetSubmission(ctx, cmd.SubmissionID)
	if err != nil {
		return entities.Submission{}, err
	}

	target := entities.SubmissionRejected
	if cmd.Approve {
		target = entities.SubmissionApproved
	}

	now := uc.now()
	won, err := uc.Repo.TransitionSubmissionStatus(ctx, submission.SubmissionID,
		entities.SubmissionPending, target,
		strings.TrimSpace(cmd.ReviewerID), strings.TrimSpace(cmd.Feedback), now)
	if err != nil {
		return entities.Submission{}, err
	}
	if !won {
		return entities.Submission{}, domainerrors.ErrInvalidState
	}

	if cmd.Approve {
		quest, err := uc.Repo.GetQuest(ctx, submission.QuestID)
		if err != nil {
			return entities.Submission{}, err
		}
		if err := uc.Awards.RecordQuestCompletion(ctx, submission.MemberID, quest.Points); err != nil {
			return entities.Submission{}, err
		}
	}

	resolveLogger(uc.Logger).Info("quest submission reviewed",
		"event", "quest_submission_reviewed",
		"module", "governance-core/quest-workflow",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"approved", cmd.Approve,
		"reviewer_id", strings.TrimSpace(cmd.ReviewerID),
	)
	return uc.Repo.GetSubmission(ctx, submission.SubmissionID)
}

// Deactivate closes a quest to new submissions. Only the creator may close
// it through this path.
func (uc QuestUseCase) Deactivate(ctx context.Context, questID string, requesterID string) error {
	quest, err := uc.Repo.GetQuest(ctx, questID)
	if err != nil {
		return err
	}
	if quest.CreatorID != strings.TrimSpace(requesterID) {
		return domainerrors.ErrNotQuestCreator
	}
	return uc.Repo.SetQuestActive(ctx, quest.QuestID, false, uc.now())
}

func (uc QuestUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
