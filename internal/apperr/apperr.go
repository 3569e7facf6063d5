// Package apperr defines the error taxonomy surfaced by the API.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an error for the client.
type Kind int

const (
	Internal Kind = iota
	NotFound
	TypeValidation
	BusinessValidation
	PermissionDenied
	Unauthenticated
	MethodNotAllowed
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case TypeValidation:
		return "type_validation"
	case BusinessValidation:
		return "business_validation"
	case PermissionDenied:
		return "permission_denied"
	case Unauthenticated:
		return "unauthenticated"
	case MethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal"
	}
}

// Status maps the kind to an HTTP status code.
func (k Kind) Status() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case TypeValidation, BusinessValidation:
		return http.StatusBadRequest
	case PermissionDenied:
		return http.StatusForbidden
	case Unauthenticated:
		return http.StatusUnauthorized
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a client-facing error. Field names the offending input field, if any.
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// OnField returns a copy of e attributed to field.
func (e *Error) OnField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

// FieldError creates an error attributed to an input field.
func FieldError(kind Kind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or Internal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// List is a batch of per-item error messages. It is reported as a whole.
type List struct {
	Kind     Kind
	Messages []string
}

func (l *List) Error() string {
	return fmt.Sprintf("%d item errors", len(l.Messages))
}

// Add appends a message.
func (l *List) Add(format string, args ...any) {
	l.Messages = append(l.Messages, fmt.Sprintf(format, args...))
}

// Empty reports whether no messages were collected.
func (l *List) Empty() bool {
	return l == nil || len(l.Messages) == 0
}
