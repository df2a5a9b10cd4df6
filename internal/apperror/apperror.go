// Package apperror defines the error taxonomy shared by services and
// handlers. Services return *Error values; handlers map the kind to an HTTP
// status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error independently of its source.
type Kind int

const (
	// Unknown covers errors without a classified kind.
	Unknown Kind = iota
	// InvalidInput: malformed email, short password, missing required field.
	InvalidInput
	// NotFound: referenced user, gym, or invite does not exist.
	NotFound
	// Unauthorized: credential mismatch during sign-in or a bad token.
	Unauthorized
	// Conflict: duplicate email at registration, exhausted invite.
	Conflict
	// PermissionDenied: a mutation attempted without the required permission.
	PermissionDenied
	// Unavailable: transient backend failure.
	Unavailable
)

// Error carries a kind, a user-presentable message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or Unknown for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unknown
}

// Message returns the presentable message of err, falling back to a generic
// one for foreign errors so internals do not leak to clients.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return "internal error"
}

// HTTPStatus maps an error kind to the HTTP status handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case InvalidInput:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case PermissionDenied:
		return http.StatusForbidden
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
