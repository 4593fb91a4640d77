package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"concord/contexts/governance-core/quest-workflow/domain/entities"
	questerrors "concord/contexts/governance-core/quest-workflow/domain/errors"
	questports "concord/contexts/governance-core/quest-workflow/ports"
	questhttp "concord/contexts/governance-core/quest-workflow/transport/http"
)

func writeQuestError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, questhttp.ErrorResponse{Code: code, Message: message})
}

func writeQuestDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, questerrors.ErrInvalidQuestInput):
		writeQuestError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, questerrors.ErrQuestNotFound):
		writeQuestError(w, http.StatusNotFound, "quest_not_found", err.Error())
	case errors.Is(err, questerrors.ErrSubmissionNotFound):
		writeQuestError(w, http.StatusNotFound, "submission_not_found", err.Error())
	case errors.Is(err, questerrors.ErrPendingSubmissionExists):
		writeQuestError(w, http.StatusConflict, "pending_submission_exists", err.Error())
	case errors.Is(err, questerrors.ErrGuildMismatch),
		errors.Is(err, questerrors.ErrNotQuestCreator):
		writeQuestError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, questerrors.ErrQuestClosed),
		errors.Is(err, questerrors.ErrInvalidState):
		writeQuestError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	default:
		writeQuestError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleCreateQuest(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := requireUserID(w, r, writeQuestError)
	if !ok {
		return
	}

	var req questhttp.CreateQuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeQuestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.quests.Handler.CreateQuestHandler(r.Context(), creatorID, req)
	if err != nil {
		writeQuestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetQuest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.quests.Handler.GetQuestHandler(r.Context(), r.PathValue("quest_id"))
	if err != nil {
		writeQuestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListQuests(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active_only"))
	resp, err := s.quests.Handler.ListQuestsHandler(
		r.Context(),
		r.URL.Query().Get("guild"),
		activeOnly,
		limit,
		offset,
	)
	if err != nil {
		writeQuestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitQuestWork(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requireUserID(w, r, writeQuestError)
	if !ok {
		return
	}

	var req questhttp.SubmitWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeQuestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.quests.Handler.SubmitHandler(r.Context(), r.PathValue("quest_id"), memberID, req)
	if err != nil {
		writeQuestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDeactivateQuest(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := requireUserID(w, r, writeQuestError)
	if !ok {
		return
	}

	if err := s.quests.Handler.DeactivateHandler(r.Context(), r.PathValue("quest_id"), requesterID); err != nil {
		writeQuestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *Server) handleListQuestSubmissions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	filter := questports.SubmissionFilter{
		QuestID:  r.URL.Query().Get("quest_id"),
		MemberID: r.URL.Query().Get("member_id"),
		Status:   entities.SubmissionStatus(r.URL.Query().Get("status")),
		Limit:    limit,
		Offset:   offset,
	}
	resp, err := s.quests.Handler.ListSubmissionsHandler(r.Context(), filter)
	if err != nil {
		writeQuestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewQuestSubmission(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := requireUserID(w, r, writeQuestError)
	if !ok {
		return
	}

	var req questhttp.ReviewSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeQuestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.quests.Handler.ReviewHandler(r.Context(), r.PathValue("submission_id"), reviewerID, req)
	if err != nil {
		writeQuestDomainError(w, err)
		return
	}
	if req.Approve {
		s.metrics.CountPointAward()
	}
	writeJSON(w, http.StatusOK, resp)
}
