package schema

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// FormatError reports a table name that is not exactly database.table.
type FormatError struct {
	Name   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid table name %q: %s", e.Name, e.Reason)
}

// NotFoundError reports that a table could not be resolved on the remote side.
type NotFoundError struct {
	Name  string
	Cause error
}

func (e *NotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("table %s not found: %v", e.Name, e.Cause)
	}
	return fmt.Sprintf("table %s not found", e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

// RemoteError carries a non-success response from the server. Message holds
// the server's diagnostic text, already truncated by the transport.
type RemoteError struct {
	Statement string
	Code      int32
	Message   string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("remote error (code %d): %s", e.Code, e.Message)
	}
	return "remote error: " + e.Message
}

// TimeoutError reports a statement that exceeded its budget.
type TimeoutError struct {
	Statement string
	Budget    time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Budget > 0 {
		return fmt.Sprintf("statement exceeded its %s budget", e.Budget)
	}
	return "statement timed out"
}

// Timeout lets callers that only know about net.Error style checks detect it.
func (e *TimeoutError) Timeout() bool { return true }

// IsFormat reports whether err wraps a *FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTimeout reports whether err wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// AsRemote extracts the *RemoteError wrapped by err, if any.
func AsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
