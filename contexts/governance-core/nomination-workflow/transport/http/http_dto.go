package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateNominationRequest struct {
	NomineeID         string `json:"nominee_id"`
	TargetRole        string `json:"target_role"`
	Reason            string `json:"reason,omitempty"`
	LinkedPromotionID string `json:"linked_promotion_id,omitempty"`
}

type NominationResponse struct {
	NominationID      string `json:"nomination_id"`
	NominatorID       string `json:"nominator_id"`
	NomineeID         string `json:"nominee_id"`
	TargetRole        string `json:"target_role"`
	Reason            string `json:"reason,omitempty"`
	Status            string `json:"status"`
	ApproveCount      int    `json:"approve_count"`
	RejectCount       int    `json:"reject_count"`
	LinkedPromotionID string `json:"linked_promotion_id,omitempty"`
	MessageRef        string `json:"message_ref,omitempty"`
	ChannelRef        string `json:"channel_ref,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type ListNominationsResponse struct {
	Items []NominationResponse `json:"items"`
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

type ReadinessResponse struct {
	Ready        bool `json:"ready"`
	Approved     bool `json:"approved"`
	ApproveCount int  `json:"approve_count"`
	RejectCount  int  `json:"reject_count"`
}

type FinalizeRequest struct {
	Approved bool `json:"approved"`
}

type MarkProcessedRequest struct {
	MessageRef string `json:"message_ref"`
	ChannelRef string `json:"channel_ref"`
}
