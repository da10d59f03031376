// Package errs holds the error taxonomy shared by services and controllers.
package errs

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindDuplicateEmail
	KindInvalidCredentials
	KindTooManyRequests
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindStore:
		return "store"
	}
	return "unknown"
}

// Error is a classified failure. Message is safe to show to clients; Err is
// the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrTooManyRequests    = &Error{Kind: KindTooManyRequests}
	ErrStore              = &Error{Kind: KindStore}
)

func Validation(msg string) error      { return &Error{Kind: KindValidation, Message: msg} }
func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Message: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Message: msg} }

func DuplicateEmail() error {
	return &Error{Kind: KindDuplicateEmail, Message: "Email already registered"}
}

// InvalidCredentials carries the same message for unknown emails and wrong
// passwords.
func InvalidCredentials() error {
	return &Error{Kind: KindInvalidCredentials, Message: "Invalid credentials"}
}

func Store(msg string, err error) error {
	return &Error{Kind: KindStore, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps err to the response status code. Unclassified errors are 500s.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDuplicateEmail, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Server error"
}
