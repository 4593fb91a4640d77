package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPortfolioInput = errors.New("invalid portfolio input")
	ErrPortfolioNotFound     = errors.New("portfolio not found")
	ErrActivePortfolioExists = errors.New("member already has an active portfolio")
	ErrInvalidState          = errors.New("portfolio is not in a state that allows this action")
	ErrResubmitCooldown      = errors.New("resubmission cooldown in effect")
)

// ResubmitCooldownError carries how many whole days remain before a rejected
// member may open a new portfolio.
type ResubmitCooldownError struct {
	DaysRemaining int
}

func (e ResubmitCooldownError) Error() string {
	return fmt.Sprintf("resubmission blocked for %d more day(s)", e.DaysRemaining)
}

func (e ResubmitCooldownError) Unwrap() error {
	return ErrResubmitCooldown
}
