package commerce

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnexpectedStatus is returned when the GraphQL endpoint answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status from commerce api")

	// ErrQueryFailed is returned when a read query comes back with GraphQL errors.
	ErrQueryFailed = errors.New("commerce query returned errors")

	// ErrEmptyMutationResult is returned when a cart mutation reports no errors and no cart.
	ErrEmptyMutationResult = errors.New("cart mutation returned no cart")

	// ErrVerdictMismatch is returned when backend validation answers for a different number of lines.
	ErrVerdictMismatch = errors.New("validation verdicts do not match requested lines")
)

// MutationError carries the platform's messages for a rejected cart
// mutation. The messages are passed through untouched so they can be
// classified and shown to the buyer.
type MutationError struct {
	Operation string
	Messages  []string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Operation, strings.Join(e.Messages, "; "))
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d", ErrUnexpectedStatus, e.code)
}

func (e *statusError) Unwrap() error {
	return ErrUnexpectedStatus
}
