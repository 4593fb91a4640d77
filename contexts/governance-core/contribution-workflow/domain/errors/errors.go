package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidContributionInput = errors.New("invalid contribution input")
	ErrContributionNotFound     = errors.New("contribution not found")
	ErrInvalidState             = errors.New("contribution is not in a state that allows this action")
	ErrSubmissionRateLimited    = errors.New("contribution submission rate limited")
)

// RateLimitedError carries the moment the rolling submission window reopens.
type RateLimitedError struct {
	CooldownEndsAt time.Time
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("contribution submission rate limited until %s", e.CooldownEndsAt.Format(time.RFC3339))
}

func (e RateLimitedError) Unwrap() error {
	return ErrSubmissionRateLimited
}
