package errors

import "errors"

var (
	ErrInvalidMemberInput = errors.New("invalid member input")
	ErrMemberNotFound     = errors.New("member not found")
)
