package queries

import (
	"context"
	"strings"

	"concord/contexts/governance-core/quest-workflow/domain/entities"
	"concord/contexts/governance-core/quest-workflow/ports"
)

type ListUseCase struct {
	Repo ports.Repository
}

func (uc ListUseCase) GetQuest(ctx context.Context, questID string) (entities.Quest, error) {
	return uc.Repo.GetQuest(ctx, strings.TrimSpace(questID))
}

func (uc ListUseCase) ListQuests(ctx context.Context, guildName string, activeOnly bool, limit int, offset int) ([]entities.Quest, error) {
	return uc.Repo.ListQuests(ctx, strings.TrimSpace(guildName), activeOnly, limit, offset)
}

func (uc ListUseCase) GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error) {
	return uc.Repo.GetSubmission(ctx, strings.TrimSpace(submissionID))
}

func (uc ListUseCase) ListSubmissions(ctx context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	filter.QuestID = strings.TrimSpace(filter.QuestID)
	filter.MemberID = strings.TrimSpace(filter.MemberID)
	return uc.Repo.ListSubmissions(ctx, filter)
}
