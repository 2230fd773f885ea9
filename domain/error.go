package domain

import (
	stderr "errors"
	"fmt"
	"io"
	"maps"
	"net/http"

	"github.com/pkg/errors"
)

// ErrRecordNotFound is what repositories return for a missing row, so callers
// never depend on the driver's sentinel.
var ErrRecordNotFound = errors.New("record not found")

var (
	ErrBadRequest          = newError(http.StatusBadRequest, "BAD_REQUEST", "The request was malformed or contained invalid parameters")
	ErrTooManyRequests     = newError(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests, please try again later")
	ErrInternalServerError = newError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred, please contact the system administrator")

	// ErrPermissionDenied is raised by the route guard when the actor lacks a
	// module the action requires.
	ErrPermissionDenied = newError(http.StatusForbidden, "PERMISSION_DENIED", "Unauthorized to access module.")

	// ErrTransactionFailure wraps any fault that rolled back a multi-row change.
	ErrTransactionFailure = newError(http.StatusInternalServerError, "TRANSACTION_FAILURE", "The change could not be applied and was rolled back")
)

// DetailedError is an API-facing error: the HTTP status, a stable code the
// client can switch on, a message and optional per-request details. The With*
// methods return a copy, so the package-level values are never mutated.
type DetailedError struct {
	status  int
	code    string
	message string
	reason  string
	details map[string]any
	err     error
}

func newError(status int, code, message string) *DetailedError {
	return &DetailedError{status: status, code: code, message: message}
}

// IsDetailedError unwraps err looking for a *DetailedError.
func IsDetailedError(err error) (*DetailedError, bool) {
	var de *DetailedError
	if stderr.As(err, &de) {
		return de, true
	}
	return nil, false
}

func (e *DetailedError) clone() *DetailedError {
	c := *e
	c.details = maps.Clone(e.details)
	return &c
}

// WithWrap records cause, with a stack trace if it does not carry one yet.
func (e *DetailedError) WithWrap(cause error) *DetailedError {
	c := e.clone()
	if _, ok := cause.(stackTracer); ok || cause == nil {
		c.err = cause
	} else {
		c.err = errors.WithStack(cause)
	}
	return c
}

func (e *DetailedError) WithMessage(message string) *DetailedError {
	c := e.clone()
	c.message = message
	return c
}

// WithReason attaches an internal explanation. It is logged, never sent.
func (e *DetailedError) WithReason(reason string) *DetailedError {
	c := e.clone()
	c.reason = reason
	return c
}

func (e *DetailedError) WithDetail(key string, value any) *DetailedError {
	c := e.clone()
	if c.details == nil {
		c.details = map[string]any{}
	}
	c.details[key] = value
	return c
}

func (e *DetailedError) StatusCode() int { return e.status }

func (e *DetailedError) StatusText() string { return http.StatusText(e.status) }

func (e *DetailedError) Code() string { return e.code }

func (e *DetailedError) Message() string { return e.message }

func (e *DetailedError) Reason() string { return e.reason }

func (e *DetailedError) Details() map[string]any { return e.details }

func (e *DetailedError) Error() string { return e.message }

func (e *DetailedError) Unwrap() error { return e.err }

// Is matches any copy of the same error, whatever its message or details.
func (e *DetailedError) Is(target error) bool {
	t, ok := target.(*DetailedError)
	return ok && t.code == e.code && t.status == e.status
}

// StackTrace returns the trace recorded by WithWrap, if any.
func (e *DetailedError) StackTrace() errors.StackTrace {
	var st stackTracer
	if e.err != nil && stderr.As(e.err, &st) {
		return st.StackTrace()
	}
	return nil
}

// Format prints the message for %s and %v. %+v adds the code, the reason, the
// details, the cause and its stack trace.
func (e *DetailedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "%s (%d %s)", e.message, e.status, e.code)
			if e.reason != "" {
				_, _ = fmt.Fprintf(s, "\nreason: %s", e.reason)
			}
			if len(e.details) > 0 {
				_, _ = fmt.Fprintf(s, "\ndetails: %v", e.details)
			}
			if e.err != nil {
				_, _ = fmt.Fprintf(s, "\ncause: %+v", e.err)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.message)
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.message)
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}
