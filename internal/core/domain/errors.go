// Package domain defines the core domain models for the Dayon client.
package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
)

// DomainError represents a client-side error with a structured error code.
// Codes follow the format DY-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "DY-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAuthFailed is the generic authentication failure surfaced by login
	// and registration when the cause is not a field validation error.
	ErrAuthFailed = NewDomainError("DY-AUTH-4010", "authentication failed")

	// ErrNotAuthenticated indicates an operation needs a logged-in session.
	ErrNotAuthenticated = NewDomainError("DY-AUTH-4011", "not logged in")

	// ErrTokenMissing indicates the backend accepted credentials but did not
	// issue a token.
	ErrTokenMissing = NewDomainError("DY-AUTH-5020", "backend response carried no token")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("DY-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("DY-ARG-1002", "missing required argument")

	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = NewDomainError("DY-ARG-4040", "not found")
)

// ============================================================================
// Transport and persistence errors
// ============================================================================

// StorageError reports a token store failure. It is never swallowed: a
// store that cannot be read must not let requests leave unauthenticated.
type StorageError struct {
	Op      string // save, load, clear, open
	Backend string // file, badger, redis, memory
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("token store %s (%s): %v", e.Op, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NetworkError reports a request for which no HTTP response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request failed because a deadline passed.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// HTTPError reports a response with a non-2xx status.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Message string              // "message" from the response body, if any
	Fields  map[string][]string // "errors" from a 422 body, if any
	Body    []byte
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// AuthRejected reports whether the backend refused the credential (401/403).
func (e *HTTPError) AuthRejected() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Validation reports whether the response is a field validation failure.
func (e *HTTPError) Validation() bool {
	return e.Status == http.StatusUnprocessableEntity
}

// DecodeError reports a response body that did not have the expected shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ============================================================================
// Validation
// ============================================================================

// ValidationError carries field-keyed messages so forms can render them next
// to the offending input. It is produced from 422 responses and from local
// argument checks alike.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

// NewValidationError creates an empty ValidationError with a summary message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: make(map[string][]string)}
}

// Add records a message for a field and returns the receiver.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Field returns the messages recorded for a field.
func (e *ValidationError) Field(name string) []string {
	return e.Fields[name]
}

// Empty reports whether no field messages were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// FieldNames returns the field names in sorted order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "validation failed"
	}
	if len(e.Fields) == 0 {
		return msg
	}
	parts := make([]string, 0, len(e.Fields))
	for _, name := range e.FieldNames() {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], "; "))
	}
	return msg + " (" + strings.Join(parts, ", ") + ")"
}

// ValidationFromHTTP converts a 422 HTTPError into a ValidationError.
func ValidationFromHTTP(he *HTTPError) *ValidationError {
	ve := &ValidationError{Message: he.Message, Fields: make(map[string][]string, len(he.Fields))}
	for k, v := range he.Fields {
		ve.Fields[k] = append([]string(nil), v...)
	}
	return ve
}

// AsValidation returns the ValidationError carried by err, converting a 422
// HTTPError when needed.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	var he *HTTPError
	if errors.As(err, &he) && he.Validation() {
		return ValidationFromHTTP(he), true
	}
	return nil, false
}

// IsAuthRejected reports whether err wraps a 401/403 HTTPError.
func IsAuthRejected(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.AuthRejected()
}
