package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	nominationerrors "concord/contexts/governance-core/nomination-workflow/domain/errors"
	nominationhttp "concord/contexts/governance-core/nomination-workflow/transport/http"
	ledgerentities "concord/contexts/governance-core/vote-ledger/domain/entities"
	ledgererrors "concord/contexts/governance-core/vote-ledger/domain/errors"
)

func writeNominationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, nominationhttp.ErrorResponse{Code: code, Message: message})
}

func writeNominationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, nominationerrors.ErrInvalidNominationInput),
		errors.Is(err, ledgererrors.ErrInvalidVoteInput):
		writeNominationError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, nominationerrors.ErrNominationNotFound):
		writeNominationError(w, http.StatusNotFound, "nomination_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicateVote):
		writeNominationError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, ledgererrors.ErrSelfVoteForbidden):
		writeNominationError(w, http.StatusForbidden, "self_vote_forbidden", err.Error())
	case errors.Is(err, nominationerrors.ErrInvalidState):
		writeNominationError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	default:
		writeNominationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleCreateNomination(w http.ResponseWriter, r *http.Request) {
	nominatorID, ok := requireUserID(w, r, writeNominationError)
	if !ok {
		return
	}

	var req nominationhttp.CreateNominationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.nominations.Handler.CreateHandler(r.Context(), nominatorID, req)
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetNomination(w http.ResponseWriter, r *http.Request) {
	resp, err := s.nominations.Handler.GetHandler(r.Context(), r.PathValue("nomination_id"))
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPendingNominations(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	onlyUnprocessed, _ := strconv.ParseBool(r.URL.Query().Get("only_unprocessed"))
	resp, err := s.nominations.Handler.ListPendingHandler(r.Context(), onlyUnprocessed, limit, offset)
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNominationVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requireUserID(w, r, writeNominationError)
	if !ok {
		return
	}

	var req nominationhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.nominations.Handler.CastVoteHandler(r.Context(), r.PathValue("nomination_id"), voterID, req)
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	s.metrics.CountVote(string(ledgerentities.SubjectKindNomination))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNominationReadiness(w http.ResponseWriter, r *http.Request) {
	resp, err := s.nominations.Handler.CheckReadyHandler(r.Context(), r.PathValue("nomination_id"))
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalizeNomination(w http.ResponseWriter, r *http.Request) {
	var req nominationhttp.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.nominations.Handler.FinalizeHandler(r.Context(), r.PathValue("nomination_id"), req)
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	outcome := "rejected"
	if req.Approved {
		outcome = "approved"
	}
	s.metrics.CountFinalization(string(ledgerentities.SubjectKindNomination), outcome)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkNominationProcessed(w http.ResponseWriter, r *http.Request) {
	var req nominationhttp.MarkProcessedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.nominations.Handler.MarkProcessedHandler(r.Context(), r.PathValue("nomination_id"), req); err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
