package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"concord/contexts/governance-core/promotion-workflow/application/commands"
	"concord/contexts/governance-core/promotion-workflow/application/queries"
	"concord/contexts/governance-core/promotion-workflow/domain/entities"
	httptransport "concord/contexts/governance-core/promotion-workflow/transport/http"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
)

type Handler struct {
	Promotions commands.PromotionUseCase
	Readiness  queries.ReadinessUseCase
	Logger     *slog.Logger
}

func (h Handler) CreateHandler(ctx context.Context, memberID string, req httptransport.CreatePortfolioRequest) (httptransport.PortfolioResponse, error) {
	portfolio, err := h.Promotions.Create(ctx, commands.CreatePortfolioCommand{
		MemberID:     memberID,
		Handle:       req.Handle,
		GuildName:    req.GuildName,
		CurrentRole:  req.CurrentRole,
		TargetRole:   req.TargetRole,
		TargetTier:   req.TargetTier,
		PortfolioURL: req.PortfolioURL,
		Summary:      req.Summary,
	})
	if err != nil {
		return httptransport.PortfolioResponse{}, err
	}
	return toPortfolioResponse(portfolio), nil
}

func (h Handler) UpdateDraftHandler(ctx context.Context, portfolioID string, memberID string, req httptransport.UpdateDraftRequest) (httptransport.PortfolioResponse, error) {
	portfolio, err := h.Promotions.UpdateDraft(ctx, commands.UpdateDraftCommand{
		PortfolioID:  portfolioID,
		MemberID:     memberID,
		Handle:       req.Handle,
		PortfolioURL: req.PortfolioURL,
		Summary:      req.Summary,
	})
	if err != nil {
		return httptransport.PortfolioResponse{}, err
	}
	return toPortfolioResponse(portfolio), nil
}

func (h Handler) SubmitHandler(ctx context.Context, portfolioID string, memberID string) (httptransport.PortfolioResponse, error) {
	portfolio, err := h.Promotions.Submit(ctx, commands.SubmitCommand{
		PortfolioID: portfolioID,
		MemberID:    memberID,
	})
	if err != nil {
		return httptransport.PortfolioResponse{}, err
	}
	return toPortfolioResponse(portfolio), nil
}

func (h Handler) ReviewHandler(ctx context.Context, portfolioID string, reviewerID string, req httptransport.ReviewRequest) (httptransport.PortfolioResponse, error) {
	portfolio, err := h.Promotions.Review(ctx, commands.ReviewCommand{
		PortfolioID: portfolioID,
		ReviewerID:  reviewerID,
		Action:      entities.ReviewAction(req.Action),
		Reason:      req.Reason,
	})
	if err != nil {
		return httptransport.PortfolioResponse{}, err
	}
	return toPortfolioResponse(portfolio), nil
}

func (h Handler) CastVoteHandler(ctx context.Context, portfolioID string, voterID string, req httptransport.CastVoteRequest) (httptransport.CastVoteResponse, error) {
	result, err := h.Promotions.CastVote(ctx, commands.CastVoteCommand{
		PortfolioID: portfolioID,
		VoterID:     voterID,
		Kind:        ledgerentities.VoteKind(req.Kind),
		Reason:      req.Reason,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		VoteID:       result.Vote.VoteID,
		Kind:         string(result.Vote.Kind),
		ApproveCount: result.Tally.Approve,
		RejectCount:  result.Tally.Reject,
	}, nil
}

func (h Handler) AttachScoreHandler(ctx context.Context, portfolioID string, req httptransport.AttachScoreRequest) error {
	return h.Promotions.AttachScore(ctx, commands.AttachScoreCommand{
		PortfolioID: portfolioID,
		Score:       req.Score,
		Feedback:    req.Feedback,
	})
}

func (h Handler) CheckReadyHandler(ctx context.Context, portfolioID string) (httptransport.ReadinessResponse, error) {
	readiness, err := h.Readiness.CheckReady(ctx, portfolioID)
	if err != nil {
		return httptransport.ReadinessResponse{}, err
	}
	return httptransport.ReadinessResponse{
		Ready:        readiness.Ready,
		Approved:     readiness.Approved,
		ApproveCount: readiness.Tally.Approve,
		RejectCount:  readiness.Tally.Reject,
	}, nil
}

func (h Handler) FinalizeHandler(ctx context.Context, portfolioID string, req httptransport.FinalizeRequest) (httptransport.PortfolioResponse, error) {
	portfolio, err := h.Promotions.Finalize(ctx, commands.FinalizeCommand{
		PortfolioID: portfolioID,
		Approved:    req.Approved,
	})
	if err != nil {
		return httptransport.PortfolioResponse{}, err
	}
	return toPortfolioResponse(portfolio), nil
}

func (h Handler) CanResubmitHandler(ctx context.Context, memberID string) (httptransport.ResubmissionResponse, error) {
	resubmission, err := h.Readiness.CanResubmit(ctx, memberID)
	if err != nil {
		return httptransport.ResubmissionResponse{}, err
	}
	return httptransport.ResubmissionResponse{
		Allowed:       resubmission.Allowed,
		DaysRemaining: resubmission.DaysRemaining,
	}, nil
}

func (h Handler) GetHandler(ctx context.Context, portfolioID string) (httptransport.PortfolioResponse, error) {
	portfolio, err := h.Readiness.Get(ctx, portfolioID)
	if err != nil {
		return httptransport.PortfolioResponse{}, err
	}
	return toPortfolioResponse(portfolio), nil
}

func (h Handler) HistoryHandler(ctx context.Context, memberID string) (httptransport.PromotionHistoryResponse, error) {
	records, err := h.Readiness.History(ctx, memberID)
	if err != nil {
		return httptransport.PromotionHistoryResponse{}, err
	}
	items := make([]httptransport.PromotionHistoryEntry, 0, len(records))
	for _, record := range records {
		items = append(items, httptransport.PromotionHistoryEntry{
			HistoryID:   record.HistoryID,
			PortfolioID: record.PortfolioID,
			FromRole:    record.FromRole,
			ToRole:      record.ToRole,
			PromotedAt:  record.PromotedAt.Format(time.RFC3339),
		})
	}
	return httptransport.PromotionHistoryResponse{MemberID: memberID, Items: items}, nil
}

func (h Handler) ListByStatusHandler(ctx context.Context, status string, limit int, offset int) (httptransport.ListPortfoliosResponse, error) {
	portfolios, err := h.Readiness.ListByStatus(ctx, entities.Status(status), limit, offset)
	if err != nil {
		return httptransport.ListPortfoliosResponse{}, err
	}
	items := make([]httptransport.PortfolioResponse, 0, len(portfolios))
	for _, portfolio := range portfolios {
		items = append(items, toPortfolioResponse(portfolio))
	}
	return httptransport.ListPortfoliosResponse{Items: items}, nil
}

func toPortfolioResponse(p entities.Portfolio) httptransport.PortfolioResponse {
	resp := httptransport.PortfolioResponse{
		PortfolioID:    p.PortfolioID,
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
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
	if p.VotingDeadline != nil {
		resp.VotingDeadline = p.VotingDeadline.Format(time.RFC3339)
	}
	if p.ReviewedAt != nil {
		resp.ReviewedAt = p.ReviewedAt.Format(time.RFC3339)
	}
	return resp
}
