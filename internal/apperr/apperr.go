package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable machine-readable tag carried by every error this
// subsystem returns across its boundary.
type Kind string

const (
	KindInvalidOperation Kind = "invalid_operation"
	KindAccessDenied     Kind = "access_denied"
	KindInvalidContent   Kind = "invalid_content"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindUnavailable      Kind = "unavailable"
)

// Error is a kind-tagged error with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func InvalidOperation(message string) *Error {
	return &Error{Kind: KindInvalidOperation, Message: message}
}

func AccessDenied(message string) *Error {
	return &Error{Kind: KindAccessDenied, Message: message}
}

func InvalidContent(message string) *Error {
	return &Error{Kind: KindInvalidContent, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Unavailable(message string) *Error {
	return &Error{Kind: KindUnavailable, Message: message}
}

// KindOf extracts the kind tag from an error. Untagged errors report as
// unavailable so storage and collaborator failures never leak internals.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the HTTP status code the transport
// boundary responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidOperation, KindInvalidContent:
		return http.StatusBadRequest
	case KindAccessDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
