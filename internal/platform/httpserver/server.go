package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	membersvc "concord/contexts/community-experience/member-service"
	contributionworkflow "concord/contexts/governance-core/contribution-workflow"
	nominationworkflow "concord/contexts/governance-core/nomination-workflow"
	promotionworkflow "concord/contexts/governance-core/promotion-workflow"
	questworkflow "concord/contexts/governance-core/quest-workflow"
	"concord/internal/platform/metrics"

	_ "concord/internal/platform/httpserver/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	metrics       *metrics.Registry
	members       membersvc.Module
	contributions contributionworkflow.Module
	nominations   nominationworkflow.Module
	promotions    promotionworkflow.Module
	quests        questworkflow.Module
}

func New(
	members membersvc.Module,
	contributions contributionworkflow.Module,
	nominations nominationworkflow.Module,
	promotions promotionworkflow.Module,
	quests questworkflow.Module,
	registry *metrics.Registry,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		metrics:       registry,
		members:       members,
		contributions: contributions,
		nominations:   nominations,
		promotions:    promotions,
		quests:        quests,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("PUT /api/community/v1/members/{member_id}", s.handleEnsureMember)
	s.mux.HandleFunc("GET /api/community/v1/members/{member_id}", s.handleGetMember)
	s.mux.HandleFunc("GET /api/community/v1/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("GET /api/community/v1/stats", s.handleCommunityStats)

	s.mux.HandleFunc("POST /api/governance/v1/contributions", s.handleSubmitContribution)
	s.mux.HandleFunc("GET /api/governance/v1/contributions", s.handleListContributions)
	s.mux.HandleFunc("GET /api/governance/v1/contributions/eligibility", s.handleContributionEligibility)
	s.mux.HandleFunc("GET /api/governance/v1/contributions/{contribution_id}", s.handleGetContribution)
	s.mux.HandleFunc("POST /api/governance/v1/contributions/{contribution_id}/votes", s.handleContributionVote)
	s.mux.HandleFunc("POST /api/governance/v1/contributions/{contribution_id}/reject", s.handleRejectContribution)
	s.mux.HandleFunc("POST /api/governance/v1/contributions/{contribution_id}/feature", s.handleFeatureContribution)

	s.mux.HandleFunc("POST /api/governance/v1/nominations", s.handleCreateNomination)
	s.mux.HandleFunc("GET /api/governance/v1/nominations/pending", s.handleListPendingNominations)
	s.mux.HandleFunc("GET /api/governance/v1/nominations/{nomination_id}", s.handleGetNomination)
	s.mux.HandleFunc("POST /api/governance/v1/nominations/{nomination_id}/votes", s.handleNominationVote)
	s.mux.HandleFunc("GET /api/governance/v1/nominations/{nomination_id}/readiness", s.handleNominationReadiness)
	s.mux.HandleFunc("POST /api/governance/v1/nominations/{nomination_id}/finalize", s.handleFinalizeNomination)
	s.mux.HandleFunc("POST /api/governance/v1/nominations/{nomination_id}/processed", s.handleMarkNominationProcessed)

	s.mux.HandleFunc("POST /api/governance/v1/promotions", s.handleCreatePortfolio)
	s.mux.HandleFunc("GET /api/governance/v1/promotions", s.handleListPortfolios)
	s.mux.HandleFunc("GET /api/governance/v1/promotions/{portfolio_id}", s.handleGetPortfolio)
	s.mux.HandleFunc("PATCH /api/governance/v1/promotions/{portfolio_id}", s.handleUpdateDraft)
	s.mux.HandleFunc("POST /api/governance/v1/promotions/{portfolio_id}/submit", s.handleSubmitPortfolio)
	s.mux.HandleFunc("POST /api/governance/v1/promotions/{portfolio_id}/review", s.handleReviewPortfolio)
	s.mux.HandleFunc("POST /api/governance/v1/promotions/{portfolio_id}/votes", s.handlePromotionVote)
	s.mux.HandleFunc("POST /api/governance/v1/promotions/{portfolio_id}/score", s.handleAttachScore)
	s.mux.HandleFunc("GET /api/governance/v1/promotions/{portfolio_id}/readiness", s.handlePromotionReadiness)
	s.mux.HandleFunc("POST /api/governance/v1/promotions/{portfolio_id}/finalize", s.handleFinalizePortfolio)
	s.mux.HandleFunc("GET /api/governance/v1/members/{member_id}/promotions/resubmission", s.handleCanResubmit)
	s.mux.HandleFunc("GET /api/governance/v1/members/{member_id}/promotions/history", s.handlePromotionHistory)

	s.mux.HandleFunc("POST /api/governance/v1/quests", s.handleCreateQuest)
	s.mux.HandleFunc("GET /api/governance/v1/quests", s.handleListQuests)
	s.mux.HandleFunc("GET /api/governance/v1/quests/{quest_id}", s.handleGetQuest)
	s.mux.HandleFunc("POST /api/governance/v1/quests/{quest_id}/submissions", s.handleSubmitQuestWork)
	s.mux.HandleFunc("POST /api/governance/v1/quests/{quest_id}/deactivate", s.handleDeactivateQuest)
	s.mux.HandleFunc("GET /api/governance/v1/submissions", s.handleListQuestSubmissions)
	s.mux.HandleFunc("POST /api/governance/v1/submissions/{submission_id}/review", s.handleReviewQuestSubmission)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parsePagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
