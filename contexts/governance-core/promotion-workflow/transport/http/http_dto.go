package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePortfolioRequest struct {
	Handle       string `json:"handle,omitempty"`
	GuildName    string `json:"guild_name,omitempty"`
	CurrentRole  string `json:"current_role,omitempty"`
	TargetRole   string `json:"target_role"`
	TargetTier   int    `json:"target_tier,omitempty"`
	PortfolioURL string `json:"portfolio_url,omitempty"`
	Summary      string `json:"summary,omitempty"`
}

type UpdateDraftRequest struct {
	Handle       string `json:"handle,omitempty"`
	PortfolioURL string `json:"portfolio_url,omitempty"`
	Summary      string `json:"summary,omitempty"`
}

type ReviewRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

type CastVoteRequest struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

type CastVoteResponse struct {
	VoteID       string `json:"vote_id"`
	Kind         string `json:"kind"`
	ApproveCount int    `json:"approve_count"`
	RejectCount  int    `json:"reject_count"`
}

type AttachScoreRequest struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
}

type FinalizeRequest struct {
	Approved bool `json:"approved"`
}

type PortfolioResponse struct {
	PortfolioID    string `json:"portfolio_id"`
	MemberID       string `json:"member_id"`
	Handle         string `json:"handle,omitempty"`
	GuildName      string `json:"guild_name,omitempty"`
	CurrentRole    string `json:"current_role,omitempty"`
	TargetRole     string `json:"target_role"`
	TargetTier     int    `json:"target_tier,omitempty"`
	PortfolioURL   string `json:"portfolio_url,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Status         string `json:"status"`
	ApproveCount   int    `json:"approve_count"`
	RejectCount    int    `json:"reject_count"`
	Score          *int   `json:"score,omitempty"`
	ScoreFeedback  string `json:"score_feedback,omitempty"`
	ReviewerID     string `json:"reviewer_id,omitempty"`
	ReviewFeedback string `json:"review_feedback,omitempty"`
	VotingDeadline string `json:"voting_deadline,omitempty"`
	ReviewedAt     string `json:"reviewed_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type ListPortfoliosResponse struct {
	Items []PortfolioResponse `json:"items"`
}

type ReadinessResponse struct {
	Ready        bool `json:"ready"`
	Approved     bool `json:"approved"`
	ApproveCount int  `json:"approve_count"`
	RejectCount  int  `json:"reject_count"`
}

type ResubmissionResponse struct {
	Allowed       bool `json:"allowed"`
	DaysRemaining int  `json:"days_remaining,omitempty"`
}

type PromotionHistoryEntry struct {
	HistoryID   string `json:"history_id"`
	PortfolioID string `json:"portfolio_id"`
	FromRole    string `json:"from_role"`
	ToRole      string `json:"to_role"`
	PromotedAt  string `json:"promoted_at"`
}

type PromotionHistoryResponse struct {
	MemberID string                  `json:"member_id"`
	Items    []PromotionHistoryEntry `json:"items"`
}
