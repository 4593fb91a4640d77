package entities

import "time"

type VoteKind string

const (
	VoteKindApprove VoteKind = "approve"
	VoteKindReject  VoteKind = "reject"
)

func (k VoteKind) Valid() bool {
	return k == VoteKindApprove || k == VoteKindReject
}

// SubjectKind identifies which workflow owns a voted subject.
type SubjectKind string

const (
	SubjectKindContribution SubjectKind = "contribution"
	SubjectKindNomination   SubjectKind = "nomination"
	SubjectKindPromotion    SubjectKind = "promotion"
)

// Vote is the single live vote of one voter on one subject.
type Vote struct {
	VoteID      string
	SubjectKind SubjectKind
	SubjectID   string
	VoterID     string
	Kind        VoteKind
	Reason      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tally is the cached per-subject counter pair maintained by the owning
// workflow.
type Tally struct {
	Approve int
	Reject  int
}

func (t Tally) Total() int {
	return t.Approve + t.Reject
}

// TallyDelta is the adjustment a cast produces: +1 for a fresh vote, or the
// -1/+1 pair of a switched vote.
type TallyDelta struct {
	Approve int
	Reject  int
}

func (t Tally) Apply(delta TallyDelta) Tally {
	return Tally{
		Approve: t.Approve + delta.Approve,
		Reject:  t.Reject + delta.Reject,
	}
}
