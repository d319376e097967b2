// Package fault carries the error taxonomy shared by every service. Each
// failure is tagged with a Kind the HTTP layer maps onto a status code, and
// an operation-scoped code of the form "<operation>.<reason>".
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure.
type Kind int

const (
	// KindUnknown covers errors produced outside this package.
	KindUnknown Kind = iota
	// KindInvalidArgument marks missing or malformed input.
	KindInvalidArgument
	// KindNotFound marks an absent referenced entity.
	KindNotFound
	// KindUnauthorized marks a missing actor or an actor lacking permission.
	KindUnauthorized
	// KindConflict marks a uniqueness violation.
	KindConflict
	// KindDependency marks a persistence or media-store failure.
	KindDependency
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindDependency:
		return "dependency"
	default:
		return "unknown"
	}
}

// Fault is a classified service error. The message is safe to show to a
// caller; the cause is not and stays behind Unwrap.
type Fault struct {
	kind    Kind
	code    string
	message string
	cause   error
}

// New builds a Fault with code "<operation>.<reason>".
func New(kind Kind, operation, reason, message string, cause error) *Fault {
	return &Fault{
		kind:    kind,
		code:    fmt.Sprintf("%s.%s", operation, reason),
		message: message,
		cause:   cause,
	}
}

// Invalid builds an invalid-argument fault.
func Invalid(operation, reason, message string) *Fault {
	return New(KindInvalidArgument, operation, reason, message, nil)
}

// NotFound builds a not-found fault.
func NotFound(operation, reason, message string) *Fault {
	return New(KindNotFound, operation, reason, message, nil)
}

// Unauthorized builds an unauthorized fault.
func Unauthorized(operation, reason, message string) *Fault {
	return New(KindUnauthorized, operation, reason, message, nil)
}

// Conflict builds a conflict fault.
func Conflict(operation, reason, message string) *Fault {
	return New(KindConflict, operation, reason, message, nil)
}

// Dependency builds a dependency fault wrapping the underlying error.
func Dependency(operation, reason string, cause error) *Fault {
	return New(KindDependency, operation, reason, "the operation could not be completed, please try again", cause)
}

func (f *Fault) Error() string {
	if f.cause == nil {
		return f.code
	}
	return fmt.Sprintf("%s: %v", f.code, f.cause)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (f *Fault) Unwrap() error {
	return f.cause
}

// Kind returns the taxonomy kind.
func (f *Fault) Kind() Kind {
	return f.kind
}

// Code returns the operation-scoped code.
func (f *Fault) Code() string {
	return f.code
}

// Message returns the caller-safe message.
func (f *Fault) Message() string {
	return f.message
}

// KindOf extracts the Kind from any error, KindUnknown when untagged.
func KindOf(err error) Kind {
	var classified *Fault
	if errors.As(err, &classified) {
		return classified.kind
	}
	return KindUnknown
}
