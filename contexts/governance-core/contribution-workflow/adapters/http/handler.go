package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"concord/contexts/governance-core/contribution-workflow/application/commands"
	"concord/contexts/governance-core/contribution-workflow/application/queries"
	"concord/contexts/governance-core/contribution-workflow/domain/entities"
	"concord/contexts/governance-core/contribution-workflow/ports"
	httptransport "concord/contexts/governance-core/contribution-workflow/transport/http"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
)

type Handler struct {
	Contributions commands.ContributionUseCase
	Lists         queries.ListUseCase
	Logger        *slog.Logger
}

func (h Handler) SubmitHandler(ctx context.Context, authorID string, req httptransport.SubmitContributionRequest) (httptransport.ContributionResponse, error) {
	contribution, err := h.Contributions.Submit(ctx, commands.SubmitContributionCommand{
		AuthorID:   authorID,
		Title:      req.Title,
		ContentURL: req.ContentURL,
		Category:   req.Category,
	})
	if err != nil {
		return httptransport.ContributionResponse{}, err
	}
	return toContributionResponse(queries.ContributionView{Contribution: contribution}), nil
}

func (h Handler) CastVoteHandler(ctx context.Context, contributionID string, voterID string, req httptransport.CastVoteRequest) (httptransport.CastVoteResponse, error) {
	result, err := h.Contributions.CastVote(ctx, commands.CastVoteCommand{
		ContributionID: contributionID,
		VoterID:        voterID,
		Kind:           voteKindFromWire(req.Kind),
		Reason:         req.Reason,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		VoteID:       result.Vote.VoteID,
		Kind:         voteKindToWire(result.Vote.Kind),
		Upvotes:      result.Tally.Approve,
		Downvotes:    result.Tally.Reject,
		AutoApproved: result.AutoApproved,
	}, nil
}

func (h Handler) RejectHandler(ctx context.Context, contributionID string, moderatorID string, req httptransport.RejectContributionRequest) error {
	return h.Contributions.Reject(ctx, commands.RejectContributionCommand{
		ContributionID: contributionID,
		ModeratorID:    moderatorID,
		Reason:         req.Reason,
	})
}

func (h Handler) FeatureHandler(ctx context.Context, contributionID string, req httptransport.FeatureContributionRequest) error {
	return h.Contributions.Feature(ctx, contributionID, req.Featured)
}

func (h Handler) ListHandler(ctx context.Context, category string, status string, limit int, offset int) (httptransport.ListContributionsResponse, error) {
	views, err := h.Lists.List(ctx, ports.ListFilter{
		Category: category,
		Status:   entities.Status(status),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return httptransport.ListContributionsResponse{}, err
	}
	items := make([]httptransport.ContributionResponse, 0, len(views))
	for _, view := range views {
		items = append(items, toContributionResponse(view))
	}
	return httptransport.ListContributionsResponse{Items: items}, nil
}

func (h Handler) GetHandler(ctx context.Context, contributionID string) (httptransport.ContributionResponse, error) {
	view, err := h.Lists.Get(ctx, contributionID)
	if err != nil {
		return httptransport.ContributionResponse{}, err
	}
	return toContributionResponse(view), nil
}

func (h Handler) EligibilityHandler(ctx context.Context, authorID string) (httptransport.EligibilityResponse, error) {
	eligibility, err := h.Lists.CheckEligibility(ctx, authorID)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	resp := httptransport.EligibilityResponse{CanSubmit: eligibility.CanSubmit}
	if !eligibility.CanSubmit {
		resp.CooldownEndsAt = eligibility.CooldownEndsAt.Format(time.RFC3339)
	}
	return resp, nil
}

func toContributionResponse(view queries.ContributionView) httptransport.ContributionResponse {
	c := view.Contribution
	resp := httptransport.ContributionResponse{
		ContributionID:    c.ContributionID,
		AuthorID:          c.AuthorID,
		AuthorDisplayName: view.AuthorDisplayName,
		Title:             c.Title,
		ContentURL:        c.ContentURL,
		Category:          c.Category,
		Status:            string(c.Status),
		Featured:          c.Featured,
		Upvotes:           c.Tally.Approve,
		Downvotes:         c.Tally.Reject,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
	}
	if c.ApprovedAt != nil {
		resp.ApprovedAt = c.ApprovedAt.Format(time.RFC3339)
	}
	return resp
}

// Contribution votes speak upvote/downvote on the wire; the ledger stores
// them as approve/reject.
func voteKindFromWire(kind string) ledgerentities.VoteKind {
	switch kind {
	case "upvote":
		return ledgerentities.VoteKindApprove
	case "downvote":
		return ledgerentities.VoteKindReject
	default:
		return ledgerentities.VoteKind(kind)
	}
}

func voteKindToWire(kind ledgerentities.VoteKind) string {
	switch kind {
	case ledgerentities.VoteKindApprove:
		return "upvote"
	case ledgerentities.VoteKindReject:
		return "downvote"
	default:
		return string(kind)
	}
}
