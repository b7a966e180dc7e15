package services

import "errors"

var (
	ErrSubmitterNotFound    = errors.New("user not found")
	ErrNoReviewersAvailable = errors.New("no reviewers available to assign the idea")
	ErrIdeaNotFound         = errors.New("idea not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNoneFound            = errors.New("no ideas found")
	ErrValidation           = errors.New("invalid request")
	ErrAssignmentClaimed    = errors.New("idea is already claimed for assignment")
)
