package engine

import (
	"errors"
	"fmt"
)

// State errors: the request was well formed but the assignment is not in a
// state that allows it.
var (
	ErrNotCompleted    = errors.New("assignment not completed")
	ErrAlreadyRated    = errors.New("assignment already rated")
	ErrAlreadyReviewed = errors.New("assignment already reviewed")
	ErrNotParticipant  = errors.New("no pending step for this participant")
)

// ValidationError marks malformed input rejected before any state change.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
