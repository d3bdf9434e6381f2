package core

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the closed failure categories the
// service can surface. Callers branch on kind, never on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindClassification
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindClassification:
		return "classification"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the structured error carried across package boundaries.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "ledger.create_transaction"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NotFoundf builds a NotFound error for the given operation.
func NotFoundf(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Invalidf builds a Validation error for the given operation.
func Invalidf(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps a lower-level failure as an Internal error.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf extracts the kind of err, walking the wrap chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
