package errors

import "errors"

var (
	ErrInvalidNominationInput = errors.New("invalid nomination input")
	ErrNominationNotFound     = errors.New("nomination not found")
	ErrInvalidState           = errors.New("nomination is not in a state that allows this action")
)
