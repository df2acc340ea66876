package approval

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// Conflict codes.
const (
	CodeAlreadyDecided    = "already_decided"
	CodeOutOfSequence     = "out_of_sequence"
	CodeDuplicateOrder    = "duplicate_order"
	CodeRequestNotPending = "request_not_pending"
)

// Error is the typed workflow error. Sentinels below match by Kind, and by
// Code too when the sentinel carries one.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
		if e.Code != "" {
			msg += ": " + e.Code
		}
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrForbidden   = &Error{Kind: KindForbidden}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrPersistence = &Error{Kind: KindPersistence}

	ErrAlreadyDecided    = &Error{Kind: KindConflict, Code: CodeAlreadyDecided}
	ErrOutOfSequence     = &Error{Kind: KindConflict, Code: CodeOutOfSequence}
	ErrDuplicateOrder    = &Error{Kind: KindConflict, Code: CodeDuplicateOrder}
	ErrRequestNotPending = &Error{Kind: KindConflict, Code: CodeRequestNotPending}
)

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a store failure. Typed errors pass through untouched so
// a domain error raised inside a transaction keeps its kind.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: KindPersistence, Message: "store failure", Err: err}
}

// KindOf returns the kind of a typed error, or 0 for anything else.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return 0
}

// CodeOf returns the conflict code of a typed error, if any.
func CodeOf(err error) string {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return ""
}
