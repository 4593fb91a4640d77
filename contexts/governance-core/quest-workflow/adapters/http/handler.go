package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"concord/contexts/governance-core/quest-workflow/application/commands"
	"concord/contexts/governance-core/quest-workflow/application/queries"
	"concord/contexts/governance-core/quest-workflow/domain/entities"
	domainerrors "concord/contexts/governance-core/quest-workflow/domain/errors"
	"concord/contexts/governance-core/quest-workflow/ports"
	httptransport "concord/contexts/governance-core/quest-workflow/transport/http"
)

type Handler struct {
	Quests commands.QuestUseCase
	Lists  queries.ListUseCase
	Logger *slog.Logger
}

func (h Handler) CreateQuestHandler(ctx context.Context, creatorID string, req httptransport.CreateQuestRequest) (httptransport.QuestResponse, error) {
	var deadline *time.Time
	if req.Deadline != "" {
		parsed, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			return httptransport.QuestResponse{}, domainerrors.ErrInvalidQuestInput
		}
		utc := parsed.UTC()
		deadline = &utc
	}
	quest, err := h.Quests.CreateQuest(ctx, commands.CreateQuestCommand{
		CreatorID:   creatorID,
		GuildName:   req.GuildName,
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		Deadline:    deadline,
	})
	if err != nil {
		return httptransport.QuestResponse{}, err
	}
	return toQuestResponse(quest), nil
}

func (h Handler) SubmitHandler(ctx context.Context, questID string, memberID string, req httptransport.SubmitWorkRequest) (httptransport.SubmissionResponse, error) {
	submission, err := h.Quests.Submit(ctx, commands.SubmitCommand{
		QuestID:  questID,
		MemberID: memberID,
		WorkRef:  req.WorkRef,
	})
	if err != nil {
		return httptransport.SubmissionResponse{}, err
	}
	return toSubmissionResponse(submission), nil
}

func (h Handler) ReviewHandler(ctx context.Context, submissionID string, reviewerID string, req httptransport.ReviewSubmissionRequest) (httptransport.SubmissionResponse, error) {
	submission, err := h.Quests.Review(ctx, commands.ReviewCommand{
		SubmissionID: submissionID,
		ReviewerID:   reviewerID,
		Approve:      req.Approve,
		Feedback:     req.Feedback,
	})
	if err != nil {
		return httptransport.SubmissionResponse{}, err
	}
	return toSubmissionResponse(submission), nil
}

func (h Handler) DeactivateHandler(ctx context.Context, questID string, requesterID string) error {
	return h.Quests.Deactivate(ctx, questID, requesterID)
}

func (h Handler) GetQuestHandler(ctx context.Context, questID string) (httptransport.QuestResponse, error) {
	quest, err := h.Lists.GetQuest(ctx, questID)
	if err != nil {
		return httptransport.QuestResponse{}, err
	}
	return toQuestResponse(quest), nil
}

func (h Handler) ListQuestsHandler(ctx context.Context, guildName string, activeOnly bool, limit int, offset int) (httptransport.ListQuestsResponse, error) {
	quests, err := h.Lists.ListQuests(ctx, guildName, activeOnly, limit, offset)
	if err != nil {
		return httptransport.ListQuestsResponse{}, err
	}
	items := make([]httptransport.QuestResponse, 0, len(quests))
	for _, quest := range quests {
		items = append(items, toQuestResponse(quest))
	}
	return httptransport.ListQuestsResponse{Items: items}, nil
}

func (h Handler) ListSubmissionsHandler(ctx context.Context, filter ports.SubmissionFilter) (httptransport.ListSubmissionsResponse, error) {
	submissions, err := h.Lists.ListSubmissions(ctx, filter)
	if err != nil {
		return httptransport.ListSubmissionsResponse{}, err
	}
	items := make([]httptransport.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, toSubmissionResponse(submission))
	}
	return httptransport.ListSubmissionsResponse{Items: items}, nil
}

func toQuestResponse(q entities.Quest) httptransport.QuestResponse {
	resp := httptransport.QuestResponse{
		QuestID:     q.QuestID,
		GuildName:   q.GuildName,
		CreatorID:   q.CreatorID,
		Title:       q.Title,
		Description: q.Description,
		Points:      q.Points,
		Active:      q.Active,
		CreatedAt:   q.CreatedAt.Format(time.RFC3339),
	}
	if q.Deadline != nil {
		resp.Deadline = q.Deadline.Format(time.RFC3339)
	}
	return resp
}

func toSubmissionResponse(s entities.Submission) httptransport.SubmissionResponse {
	resp := httptransport.SubmissionResponse{
		SubmissionID: s.SubmissionID,
		QuestID:      s.QuestID,
		MemberID:     s.MemberID,
		WorkRef:      s.WorkRef,
		Status:       string(s.Status),
		ReviewerID:   s.ReviewerID,
		Feedback:     s.Feedback,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
	}
	if s.ReviewedAt != nil {
		resp.ReviewedAt = s.ReviewedAt.Format(time.RFC3339)
	}
	return resp
}
