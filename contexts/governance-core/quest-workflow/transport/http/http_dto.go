package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateQuestRequest struct {
	GuildName   string `json:"guild_name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points"`
	Deadline    string `json:"deadline,omitempty"`
}

type QuestResponse struct {
	QuestID     string `json:"quest_id"`
	GuildName   string `json:"guild_name"`
	CreatorID   string `json:"creator_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points"`
	Deadline    string `json:"deadline,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
}

type ListQuestsResponse struct {
	Items []QuestResponse `json:"items"`
}

type SubmitWorkRequest struct {
	WorkRef string `json:"work_ref"`
}

type SubmissionResponse struct {
	SubmissionID string `json:"submission_id"`
	QuestID      string `json:"quest_id"`
	MemberID     string `json:"member_id"`
	WorkRef      string `json:"work_ref"`
	Status       string `json:"status"`
	ReviewerID   string `json:"reviewer_id,omitempty"`
	Feedback     string `json:"feedback,omitempty"`
	ReviewedAt   string `json:"reviewed_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type ListSubmissionsResponse struct {
	Items []SubmissionResponse `json:"items"`
}

type ReviewSubmissionRequest struct {
	Approve  bool   `json:"approve"`
	Feedback string `json:"feedback,omitempty"`
}
