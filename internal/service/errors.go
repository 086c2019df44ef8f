package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrInvalidWindow  = errors.New("submission deadline must be before the event date")
	ErrDeadlinePassed = errors.New("the submission deadline for this event has passed")
	ErrHasDependents  = errors.New("cannot delete an event that has submissions")
	ErrNotApproved    = errors.New("submission is not approved")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrMissingReason  = errors.New("rejection reason is required when rejecting a submission")
	ErrInvalidVote    = errors.New(`vote must be "up" or "down"`)
)

// Invalid wraps ErrValidation with a message meant for the client.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
