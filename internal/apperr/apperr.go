// Package apperr defines the closed set of error kinds the API can surface to clients.
//
// Services return one of the sentinel errors below, optionally wrapped with context via
// fmt.Errorf("op: %w", err). Handlers never inspect messages; they resolve the kind with
// KindOf and let pkg/response pick the status code and the client-facing text. The wrapping
// context is for logs only: Message always returns the classified error's own text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateEmail
	KindInvalidCredentials
	KindInvalidOrExpiredToken
	KindUnauthorized
	KindAuthRequired
	KindForbidden
	KindNotFound
	KindAlreadyRegistered
	KindFull
	KindRegistrationNotRequired
	KindEventInPast
	KindInvalidDate
	KindInvalidTransition
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindValidation:
		return "validation"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalidOrExpiredToken:
		return "invalid_or_expired_token"
	case KindUnauthorized:
		return "unauthorized"
	case KindAuthRequired:
		return "auth_required"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindAlreadyRegistered:
		return "already_registered"
	case KindFull:
		return "full"
	case KindRegistrationNotRequired:
		return "registration_not_required"
	case KindEventInPast:
		return "event_in_past"
	case KindInvalidDate:
		return "invalid_date"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindRateLimited:
		return "rate_limited"
	}
	return "unknown"
}

// Error is a classified error. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same kind, so wrapped and re-created errors compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New returns a classified error with a client-safe message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation returns a KindValidation error with the given message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrValidation              = New(KindValidation, "invalid request")
	ErrDuplicateEmail          = New(KindDuplicateEmail, "an account with this email already exists")
	ErrInvalidCredentials      = New(KindInvalidCredentials, "invalid credentials")
	ErrInvalidOrExpiredToken   = New(KindInvalidOrExpiredToken, "invalid or expired token")
	ErrUnauthorized            = New(KindUnauthorized, "unauthorized")
	ErrAuthRequired            = New(KindAuthRequired, "authentication required")
	ErrForbidden               = New(KindForbidden, "insufficient permissions")
	ErrNotFound                = New(KindNotFound, "not found")
	ErrAlreadyRegistered       = New(KindAlreadyRegistered, "already registered for this webinar")
	ErrFull                    = New(KindFull, "webinar is full")
	ErrRegistrationNotRequired = New(KindRegistrationNotRequired, "registration is not required for this webinar")
	ErrEventInPast             = New(KindEventInPast, "webinar has already taken place")
	ErrInvalidDate             = New(KindInvalidDate, "invalid date")
	ErrInvalidTransition       = New(KindInvalidTransition, "invalid status transition")
	ErrRateLimited             = New(KindRateLimited, "too many requests")
)

// NotFound returns a KindNotFound error naming the missing entity.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-safe message for err. Unclassified errors get a generic message.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
