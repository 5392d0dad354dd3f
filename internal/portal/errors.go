package portal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAuthExpired        = errors.New("session expired, sign in again")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("not allowed for the current session")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTimeout            = errors.New("request timed out")
)

// ValidationError carries per-field problems back to the form that sent
// them.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message != "" {
			return e.Message
		}
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// TransportError is a failure worth retrying: the store could not be
// reached or answered with a server error. StatusCode is 0 when no response
// arrived.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("store unreachable: %v", e.Err)
	}
	return fmt.Sprintf("store error (HTTP %d): %v", e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transport failure or a timeout.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) || errors.Is(err, ErrTimeout)
}
