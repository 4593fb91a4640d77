package errors

import "errors"

var (
	ErrInvalidVoteInput  = errors.New("invalid vote input")
	ErrDuplicateVote     = errors.New("identical vote already cast")
	ErrSelfVoteForbidden = errors.New("self voting is forbidden")
	ErrVoteNotFound      = errors.New("vote not found")
)
