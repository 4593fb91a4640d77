package http

type ErrorResponse struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	CooldownEndsAt string `json:"cooldown_ends_at,omitempty"`
}

type SubmitContributionRequest struct {
	Title      string `json:"title"`
	ContentURL string `json:"content_url"`
	Category   string `json:"category"`
}

type ContributionResponse struct {
	ContributionID    string `json:"contribution_id"`
	AuthorID          string `json:"author_id"`
	AuthorDisplayName string `json:"author_display_name,omitempty"`
	Title             string `json:"title"`
	ContentURL        string `json:"content_url"`
	Category          string `json:"category"`
	Status            string `json:"status"`
	Featured          bool   `json:"featured"`
	Upvotes           int    `json:"upvotes"`
	Downvotes         int    `json:"downvotes"`
	ApprovedAt        string `json:"approved_at,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type ListContributionsResponse struct {
	Items []ContributionResponse `json:"items"`
}

type CastVoteRequest struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

type CastVoteResponse struct {
	VoteID       string `json:"vote_id"`
	Kind         string `json:"kind"`
	Upvotes      int    `json:"upvotes"`
	Downvotes    int    `json:"downvotes"`
	AutoApproved bool   `json:"auto_approved"`
}

type RejectContributionRequest struct {
	Reason string `json:"reason,omitempty"`
}

type FeatureContributionRequest struct {
	Featured bool `json:"featured"`
}

type EligibilityResponse struct {
	CanSubmit      bool   `json:"can_submit"`
	CooldownEndsAt string `json:"cooldown_ends_at,omitempty"`
}
