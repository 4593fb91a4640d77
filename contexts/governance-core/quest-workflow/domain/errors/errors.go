package errors

import "errors"

var (
	ErrInvalidQuestInput       = errors.New("invalid quest input")
	ErrQuestNotFound           = errors.New("quest not found")
	ErrSubmissionNotFound      = errors.New("submission not found")
	ErrQuestClosed             = errors.New("quest is not accepting submissions")
	ErrGuildMismatch           = errors.New("member guild does not match quest guild")
	ErrNotQuestCreator         = errors.New("only the quest creator may deactivate it")
	ErrPendingSubmissionExists = errors.New("member already has a pending submission for this quest")
	ErrInvalidState            = errors.New("submission is not in a state that allows this action")
)
