package services

import (
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindConflict          Kind = "conflict"
	KindInvalidOrExpired  Kind = "invalid_or_expired"
	KindInvalidTransition Kind = "invalid_transition"
	KindForbidden         Kind = "forbidden"
	KindAlreadyPaid       Kind = "already_paid"
	KindAlreadyConfirmed  Kind = "already_confirmed"
	KindUnauthorized      Kind = "unauthorized"
)

// Error is a business rule failure. Field names the offending input or
// resource ("user", "checkInDate", ...).
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s(%s): %s", e.Kind, e.Field, e.Message)
}

// Is matches on Kind, and on Field when the target sets one, so
// errors.Is(err, ErrNotFound) matches any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

// PublicMessage is safe to show to API clients.
func (e *Error) PublicMessage() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// HTTPStatus maps the kind onto the response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindInvalidOrExpired:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindInvalidTransition, KindAlreadyPaid, KindAlreadyConfirmed:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInvalidOrExpired  = &Error{Kind: KindInvalidOrExpired}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrAlreadyPaid       = &Error{Kind: KindAlreadyPaid}
	ErrAlreadyConfirmed  = &Error{Kind: KindAlreadyConfirmed}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
)

func notFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Field: resource, Message: resource + " not found"}
}

func invalidInput(field, msg string) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: msg}
}

func conflict(field, msg string) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: msg}
}

func invalidTransition(msg string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: msg}
}

func forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func invalidOrExpired() *Error {
	return &Error{Kind: KindInvalidOrExpired, Field: "credential", Message: "verification code is invalid or has expired"}
}

func invalidEmailCode() *Error {
	return &Error{Kind: KindInvalidOrExpired, Field: "otp", Message: "verification code is invalid or has expired"}
}

func invalidResetToken() *Error {
	return &Error{Kind: KindInvalidOrExpired, Field: "token", Message: "reset token is invalid or has expired"}
}

func alreadyPaid() *Error {
	return &Error{Kind: KindAlreadyPaid, Message: "booking has already been paid"}
}

func alreadyConfirmed() *Error {
	return &Error{Kind: KindAlreadyConfirmed, Message: "payment has already been confirmed and is awaiting approval"}
}
