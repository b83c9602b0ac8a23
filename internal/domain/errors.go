package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	ErrKindNotFound          ErrorKind = "NOT_FOUND"
	ErrKindInvalidTransition ErrorKind = "INVALID_STATE_TRANSITION"
	ErrKindValidation        ErrorKind = "VALIDATION"
	ErrKindConflict          ErrorKind = "CONFLICT"
	ErrKindServer            ErrorKind = "SERVER"
)

// Error is the typed, user-displayable error returned by every RMA operation.
// Business-rule violations are recovered at the call boundary and carried
// here; only truly unexpected failures use ErrKindServer.
type Error struct {
	Kind    ErrorKind
	Message string

	// Populated for ErrKindInvalidTransition so admin tooling can surface
	// the full precondition context.
	Expected []RmaStatus
	Actual   RmaStatus

	cause error
}

func (e *Error) Error() string {
	if e.Kind == ErrKindInvalidTransition && len(e.Expected) > 0 {
		return fmt.Sprintf("%s (expected status %s, current: %s)", e.Message, statusList(e.Expected), e.Actual)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func statusList(statuses []RmaStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, " or ")
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: ErrKindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: ErrKindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: ErrKindConflict, Message: fmt.Sprintf(format, args...)}
}

// Serverf wraps an unexpected failure (storage unavailable, driver error).
func Serverf(cause error, format string, args ...any) *Error {
	return &Error{Kind: ErrKindServer, Message: fmt.Sprintf(format, args...), cause: cause}
}

// TransitionErr reports a precondition failure on the current status, carrying
// the expected and actual statuses. The message should read as a plain-language
// reason, e.g. "RMA must be SHIPPING to mark received".
func TransitionErr(message string, actual RmaStatus, expected ...RmaStatus) *Error {
	return &Error{
		Kind:     ErrKindInvalidTransition,
		Message:  message,
		Expected: expected,
		Actual:   actual,
	}
}

// KindOf returns the error kind, defaulting to ErrKindServer for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindServer
}

func IsNotFound(err error) bool          { return KindOf(err) == ErrKindNotFound }
func IsInvalidTransition(err error) bool { return KindOf(err) == ErrKindInvalidTransition }
func IsValidation(err error) bool        { return KindOf(err) == ErrKindValidation }
func IsConflict(err error) bool          { return KindOf(err) == ErrKindConflict }
