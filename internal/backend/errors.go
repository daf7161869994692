package backend

import (
	"errors"
	"strings"

	"github.com/tally-dev/tally/internal/operations"
)

// ErrNotFound is returned for an unknown account or operation.
var ErrNotFound = errors.New("not found")

// ValidationError is a request the backend rejects as invalid. Message is
// shown to the user verbatim.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func newFieldError(errs []operations.ValidationError) *ValidationError {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Description
	}
	return &ValidationError{Message: strings.Join(msgs, "; ")}
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
