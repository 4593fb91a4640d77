package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	promotionerrors "concord/contexts/governance-core/promotion-workflow/domain/errors"
	promotionhttp "concord/contexts/governance-core/promotion-workflow/transport/http"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	ledgererrors "concord/contexts/governance-core/vote-ledger/domain/errors"
)

func writePromotionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, promotionhttp.ErrorResponse{Code: code, Message: message})
}

func writePromotionDomainError(w http.ResponseWriter, err error) {
	var cooldown promotionerrors.ResubmitCooldownError
	switch {
	case errors.As(err, &cooldown):
		writePromotionError(w, http.StatusTooManyRequests, "resubmission_cooldown", err.Error())
	case errors.Is(err, promotionerrors.ErrInvalidPortfolioInput),
		errors.Is(err, ledgererrors.ErrInvalidVoteInput):
		writePromotionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, promotionerrors.ErrPortfolioNotFound):
		writePromotionError(w, http.StatusNotFound, "portfolio_not_found", err.Error())
	case errors.Is(err, promotionerrors.ErrActivePortfolioExists):
		writePromotionError(w, http.StatusConflict, "active_portfolio_exists", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicateVote):
		writePromotionError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, ledgererrors.ErrSelfVoteForbidden):
		writePromotionError(w, http.StatusForbidden, "self_vote_forbidden", err.Error())
	case errors.Is(err, promotionerrors.ErrInvalidState):
		writePromotionError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	default:
		writePromotionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requireUserID(w, r, writePromotionError)
	if !ok {
		return
	}

	var req promotionhttp.CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePromotionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.promotions.Handler.CreateHandler(r.Context(), memberID, req)
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	resp, err := s.promotions.Handler.GetHandler(r.Context(), r.PathValue("portfolio_id"))
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	resp, err := s.promotions.Handler.ListByStatusHandler(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requireUserID(w, r, writePromotionError)
	if !ok {
		return
	}

	var req promotionhttp.UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePromotionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.promotions.Handler.UpdateDraftHandler(r.Context(), r.PathValue("portfolio_id"), memberID, req)
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitPortfolio(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requireUserID(w, r, writePromotionError)
	if !ok {
		return
	}

	resp, err := s.promotions.Handler.SubmitHandler(r.Context(), r.PathValue("portfolio_id"), memberID)
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewPortfolio(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := requireUserID(w, r, writePromotionError)
	if !ok {
		return
	}

	var req promotionhttp.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePromotionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.promotions.Handler.ReviewHandler(r.Context(), r.PathValue("portfolio_id"), reviewerID, req)
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePromotionVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requireUserID(w, r, writePromotionError)
	if !ok {
		return
	}

	var req promotionhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePromotionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.promotions.Handler.CastVoteHandler(r.Context(), r.PathValue("portfolio_id"), voterID, req)
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	s.metrics.CountVote(string(ledgerentities.SubjectKindPromotion))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttachScore(w http.ResponseWriter, r *http.Request) {
	var req promotionhttp.AttachScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePromotionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.promotions.Handler.AttachScoreHandler(r.Context(), r.PathValue("portfolio_id"), req); err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"score": req.Score})
}

func (s *Server) handlePromotionReadiness(w http.ResponseWriter, r *http.Request) {
	resp, err := s.promotions.Handler.CheckReadyHandler(r.Context(), r.PathValue("portfolio_id"))
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalizePortfolio(w http.ResponseWriter, r *http.Request) {
	var req promotionhttp.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePromotionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.promotions.Handler.FinalizeHandler(r.Context(), r.PathValue("portfolio_id"), req)
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	outcome := "rejected"
	if req.Approved {
		outcome = "promoted"
	}
	s.metrics.CountFinalization(string(ledgerentities.SubjectKindPromotion), outcome)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCanResubmit(w http.ResponseWriter, r *http.Request) {
	resp, err := s.promotions.Handler.CanResubmitHandler(r.Context(), r.PathValue("member_id"))
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePromotionHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.promotions.Handler.HistoryHandler(r.Context(), r.PathValue("member_id"))
	if err != nil {
		writePromotionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
