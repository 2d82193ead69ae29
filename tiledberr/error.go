// Package tiledberr defines the closed error-kind taxonomy this client
// surfaces to callers, in the spirit of github.com/grailbio/base/errors'
// Kind-tagged Error (seen throughout the teacher, e.g.
// pam/fieldio/reader.go's `e.Kind == errors.NotExist` checks and
// encoding/fastq/downsample.go's `errors.E(err, "message", args...)` calls),
// reimplemented locally because this domain's Kind set is closed and
// specific to it rather than reusable from the foreign package's own
// general-purpose Kind enum.
//
// Stack-preserving wrap/cause chains are delegated to github.com/pkg/errors
// rather than reimplemented.
package tiledberr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed taxonomy of error categories a caller can switch on.
type Kind uint8

const (
	// InvalidArgument is a caller-side violation detected before any
	// backend call (bad cell-val-num for a dimension, duplicate field
	// name, empty set membership, range truncation).
	InvalidArgument Kind = iota
	// DatatypeMismatch is a physical type incompatible with a logical
	// datatype, or a logical type mismatching its expected target.
	DatatypeMismatch
	// DimensionCompatibility is a range x datatype x cell-val-num
	// invariant violation. Distinguished from InvalidArgument because it
	// composes (Subarray.AddRange surfaces a child Range error under this
	// kind unchanged).
	DimensionCompatibility
	// QueryBuffers is a buffer-shape constraint violation: missing
	// offsets for a Var field, a borrowed buffer where owned is required,
	// a shape incompatible with the expected field.
	QueryBuffers
	// Backend is a non-OK return from the ABI; the message is the
	// context's last-error text.
	Backend
	// Internal marks an invariant violated inside the core itself --
	// should be unreachable, including "submit returned a status we
	// cannot classify".
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case DatatypeMismatch:
		return "datatype_mismatch"
	case DimensionCompatibility:
		return "dimension_compatibility"
	case QueryBuffers:
		return "query_buffers"
	case Backend:
		return "backend"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is a Kind-tagged error with an optional wrapped cause. Error
// chaining preserves the underlying cause via github.com/pkg/errors, so
// errors.Cause(err) and %+v stack traces keep working on a *tiledberr.Error.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Cause exposes the wrapped cause to github.com/pkg/errors.Cause.
func (e *Error) Cause() error { return e.cause }

// E constructs a *Error of the given kind. Extra args are formatted with
// fmt.Sprint and appended to msg; if the last arg is an error it becomes the
// wrapped cause, mirroring the teacher's own errors.E(err, "msg", args...)
// call shape.
func E(kind Kind, msg string, args ...interface{}) *Error {
	e := &Error{Kind: kind, Message: msg}
	if len(args) == 0 {
		return e
	}
	if cause, ok := args[len(args)-1].(error); ok {
		e.cause = cause
		args = args[:len(args)-1]
	}
	if len(args) > 0 {
		e.Message = fmt.Sprintf("%s: %s", msg, fmt.Sprint(args...))
	}
	return e
}

// Invalid is shorthand for E(InvalidArgument, ...).
func Invalid(msg string, args ...interface{}) *Error { return E(InvalidArgument, msg, args...) }

// Mismatch is shorthand for E(DatatypeMismatch, ...).
func Mismatch(msg string, args ...interface{}) *Error { return E(DatatypeMismatch, msg, args...) }

// Incompatible is shorthand for E(DimensionCompatibility, ...).
func Incompatible(msg string, args ...interface{}) *Error {
	return E(DimensionCompatibility, msg, args...)
}

// Buffers is shorthand for E(QueryBuffers, ...).
func Buffers(msg string, args ...interface{}) *Error { return E(QueryBuffers, msg, args...) }

// FromBackend wraps a non-OK ABI return code's message as a Backend error.
// Propagation policy (spec section 7): all non-OK ABI returns are surfaced
// immediately under this kind, message taken from the context's last-error
// channel.
func FromBackend(msg string) *Error { return E(Backend, msg) }

// Bug is shorthand for E(Internal, ...), used at sites that should be
// unreachable.
func Bug(msg string, args ...interface{}) *Error { return E(Internal, msg, args...) }

// Wrap attaches a stack trace to cause (via github.com/pkg/errors) and tags
// it with kind, for sites that catch a raw error returning from a helper and
// need both the kind taxonomy and a preserved stack.
func Wrap(cause error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: errors.WithStack(cause)}
}

// Is reports whether err is a *Error of kind k, unwrapping github.com/pkg/errors
// causes along the way.
func Is(err error, k Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == k
		}
		type causer interface{ Cause() error }
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
