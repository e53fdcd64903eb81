package chat

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejected submissions.
var (
	// ErrInputRejected is returned when the submitted text is empty.
	ErrInputRejected = errors.New("empty message rejected")

	// ErrConcurrentSubmit is returned when a reply is still streaming.
	ErrConcurrentSubmit = errors.New("a reply is already in progress")

	// ErrSessionClosed is returned once a session has ended.
	ErrSessionClosed = errors.New("session closed")

	// ErrRequestFailed matches every *RequestError.
	ErrRequestFailed = errors.New("completion request failed")

	// ErrEmptyReply is wrapped in a RequestError when the provider finished
	// without producing any content.
	ErrEmptyReply = errors.New("provider returned an empty reply")

	// ErrSessionNotFound is returned by Store lookups for unknown IDs.
	ErrSessionNotFound = errors.New("session not found")
)

// RequestError represents a turn that failed while talking to the completion
// provider. The user's message remains in history.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("completion request failed: %v", e.Err)
}

// Unwrap returns the underlying provider or transport error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is allows comparison with ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}
