package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	contributionerrors "concord/contexts/governance-core/contribution-workflow/domain/errors"
	contributionhttp "concord/contexts/governance-core/contribution-workflow/transport/http"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	ledgererrors "concord/contexts/governance-core/vote-ledger/domain/errors"
)

func writeContributionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, contributionhttp.ErrorResponse{Code: code, Message: message})
}

func writeContributionDomainError(w http.ResponseWriter, err error) {
	var rateLimited contributionerrors.RateLimitedError
	switch {
	case errors.As(err, &rateLimited):
		writeJSON(w, http.StatusTooManyRequests, contributionhttp.ErrorResponse{
			Code:           "submission_rate_limited",
			Message:        err.Error(),
			CooldownEndsAt: rateLimited.CooldownEndsAt.Format(time.RFC3339),
		})
	case errors.Is(err, contributionerrors.ErrInvalidContributionInput),
		errors.Is(err, ledgererrors.ErrInvalidVoteInput):
		writeContributionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, contributionerrors.ErrContributionNotFound):
		writeContributionError(w, http.StatusNotFound, "contribution_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicateVote):
		writeContributionError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, ledgererrors.ErrSelfVoteForbidden):
		writeContributionError(w, http.StatusForbidden, "self_vote_forbidden", err.Error())
	case errors.Is(err, contributionerrors.ErrInvalidState):
		writeContributionError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	default:
		writeContributionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireUserID(w http.ResponseWriter, r *http.Request, write func(http.ResponseWriter, int, string, string)) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		write(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handleSubmitContribution(w http.ResponseWriter, r *http.Request) {
	authorID, ok := requireUserID(w, r, writeContributionError)
	if !ok {
		return
	}

	var req contributionhttp.SubmitContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeContributionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.contributions.Handler.SubmitHandler(r.Context(), authorID, req)
	if err != nil {
		writeContributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	resp, err := s.contributions.Handler.ListHandler(
		r.Context(),
		r.URL.Query().Get("category"),
		r.URL.Query().Get("status"),
		limit,
		offset,
	)
	if err != nil {
		writeContributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetContribution(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contributions.Handler.GetHandler(r.Context(), r.PathValue("contribution_id"))
	if err != nil {
		writeContributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContributionVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requireUserID(w, r, writeContributionError)
	if !ok {
		return
	}

	var req contributionhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeContributionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.contributions.Handler.CastVoteHandler(r.Context(), r.PathValue("contribution_id"), voterID, req)
	if err != nil {
		writeContributionDomainError(w, err)
		return
	}
	s.metrics.CountVote(string(ledgerentities.SubjectKindContribution))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectContribution(w http.ResponseWriter, r *http.Request) {
	moderatorID, ok := requireUserID(w, r, writeContributionError)
	if !ok {
		return
	}

	var req contributionhttp.RejectContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeContributionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.contributions.Handler.RejectHandler(r.Context(), r.PathValue("contribution_id"), moderatorID, req); err != nil {
		writeContributionDomainError(w, err)
		return
	}
	s.metrics.CountFinalization(string(ledgerentities.SubjectKindContribution), "rejected")
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (s *Server) handleFeatureContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionhttp.FeatureContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeContributionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.contributions.Handler.FeatureHandler(r.Context(), r.PathValue("contribution_id"), req); err != nil {
		writeContributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"featured": req.Featured})
}

func (s *Server) handleContributionEligibility(w http.ResponseWriter, r *http.Request) {
	authorID, ok := requireUserID(w, r, writeContributionError)
	if !ok {
		return
	}

	resp, err := s.contributions.Handler.EligibilityHandler(r.Context(), authorID)
	if err != nil {
		writeContributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
