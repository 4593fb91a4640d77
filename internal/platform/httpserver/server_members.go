package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	membererrors "concord/contexts/community-experience/member-service/domain/errors"
	memberhttp "concord/contexts/community-experience/member-service/transport/http"
)

func writeMemberError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, memberhttp.ErrorResponse{Code: code, Message: message})
}

func writeMemberDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membererrors.ErrInvalidMemberInput):
		writeMemberError(w, http.StatusBadRequest, "invalid_member_input", err.Error())
	case errors.Is(err, membererrors.ErrMemberNotFound):
		writeMemberError(w, http.StatusNotFound, "member_not_found", err.Error())
	default:
		writeMemberError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleEnsureMember(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(r.PathValue("member_id"))
	if memberID == "" {
		writeMemberError(w, http.StatusBadRequest, "invalid_member_input", "member_id is required")
		return
	}

	var req memberhttp.EnsureMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMemberError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.members.Handler.EnsureMemberHandler(r.Context(), memberID, req)
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	resp, err := s.members.Handler.GetMemberHandler(r.Context(), r.PathValue("member_id"))
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	resp, err := s.members.Handler.LeaderboardHandler(r.Context(), limit, offset)
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommunityStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.members.Handler.StatsHandler(r.Context())
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
