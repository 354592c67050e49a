package gist

import "errors"

// Errors returned by gist operations.
//
// Callers should match with errors.Is():
//
//	if errors.Is(err, gist.ErrVersionConflict) {
//	    // someone else wrote the gist since we read it
//	}
var (
	// ErrUnauthorized is returned when the token is missing, expired
	// or lacks the gist scope (HTTP 401/403).
	ErrUnauthorized = errors.New("gist access unauthorized")

	// ErrNotFound is returned when the gist id does not exist, or the
	// gist exists but carries no bookmark file (HTTP 404).
	ErrNotFound = errors.New("gist not found")

	// ErrVersionConflict is returned when a conditional write is
	// rejected because the gist changed since it was last read
	// (HTTP 412).
	ErrVersionConflict = errors.New("gist changed since last read")
)

// TransportError wraps network failures and server-side errors. These
// are the transient ones: a later retry may succeed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "gist: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRetryable returns true if the operation may succeed on retry:
// network failures, 5xx responses and rejected conditional writes
// (which succeed after a fresh read-merge cycle).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, ErrVersionConflict)
}

// IsFatal returns true if retrying is pointless until the operator
// fixes the configuration.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound)
}
