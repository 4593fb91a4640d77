package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"concord/contexts/governance-core/nomination-workflow/application/commands"
	"concord/contexts/governance-core/nomination-workflow/application/queries"
	"concord/contexts/governance-core/nomination-workflow/domain/entities"
	httptransport "concord/contexts/governance-core/nomination-workflow/transport/http"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
)

type Handler struct {
	Nominations commands.NominationUseCase
	Readiness   queries.ReadinessUseCase
	Logger      *slog.Logger
}

func (h Handler) CreateHandler(ctx context.Context, nominatorID string, req httptransport.CreateNominationRequest) (httptransport.NominationResponse, error) {
	nomination, err := h.Nominations.Create(ctx, commands.CreateNominationCommand{
		NominatorID:       nominatorID,
		NomineeID:         req.NomineeID,
		TargetRole:        req.TargetRole,
		Reason:            req.Reason,
		LinkedPromotionID: req.LinkedPromotionID,
	})
	if err != nil {
		return httptransport.NominationResponse{}, err
	}
	return toNominationResponse(nomination), nil
}

func (h Handler) CastVoteHandler(ctx context.Context, nominationID string, voterID string, req httptransport.CastVoteRequest) (httptransport.CastVoteResponse, error) {
	result, err := h.Nominations.CastVote(ctx, commands.CastVoteCommand{
		NominationID: nominationID,
		VoterID:      voterID,
		Kind:         ledgerentities.VoteKind(req.Kind),
		Reason:       req.Reason,
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

func (h Handler) CheckReadyHandler(ctx context.Context, nominationID string) (httptransport.ReadinessResponse, error) {
	readiness, err := h.Readiness.CheckReady(ctx, nominationID)
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

func (h Handler) FinalizeHandler(ctx context.Context, nominationID string, req httptransport.FinalizeRequest) (httptransport.NominationResponse, error) {
	nomination, err := h.Nominations.Finalize(ctx, commands.FinalizeCommand{
		NominationID: nominationID,
		Approved:     req.Approved,
	})
	if err != nil {
		return httptransport.NominationResponse{}, err
	}
	return toNominationResponse(nomination), nil
}

func (h Handler) MarkProcessedHandler(ctx context.Context, nominationID string, req httptransport.MarkProcessedRequest) error {
	return h.Nominations.MarkProcessed(ctx, commands.MarkProcessedCommand{
		NominationID: nominationID,
		MessageRef:   req.MessageRef,
		ChannelRef:   req.ChannelRef,
	})
}

func (h Handler) GetHandler(ctx context.Context, nominationID string) (httptransport.NominationResponse, error) {
	nomination, err := h.Readiness.Get(ctx, nominationID)
	if err != nil {
		return httptransport.NominationResponse{}, err
	}
	return toNominationResponse(nomination), nil
}

func (h Handler) ListPendingHandler(ctx context.Context, onlyUnprocessed bool, limit int, offset int) (httptransport.ListNominationsResponse, error) {
	nominations, err := h.Readiness.ListPending(ctx, onlyUnprocessed, limit, offset)
	if err != nil {
		return httptransport.ListNominationsResponse{}, err
	}
	items := make([]httptransport.NominationResponse, 0, len(nominations))
	for _, nomination := range nominations {
		items = append(items, toNominationResponse(nomination))
	}
	return httptransport.ListNominationsResponse{Items: items}, nil
}

func toNominationResponse(n entities.Nomination) httptransport.NominationResponse {
	return httptransport.NominationResponse{
		NominationID:      n.NominationID,
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
		CreatedAt:         n.CreatedAt.Format(time.RFC3339),
	}
}
