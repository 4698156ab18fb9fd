package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a domain error. Handlers map kinds to HTTP status codes.
type Kind string

const (
	KindNotFoundOrAlreadyProcessed Kind = "not_found_or_already_processed"
	KindValidationFailure          Kind = "validation_failure"
	KindInvariantViolation         Kind = "invariant_violation"
)

// Sentinels for errors.Is checks against a kind.
var (
	ErrNotFoundOrAlreadyProcessed = &Error{Kind: KindNotFoundOrAlreadyProcessed}
	ErrValidationFailure          = &Error{Kind: KindValidationFailure}
	ErrInvariantViolation         = &Error{Kind: KindInvariantViolation}
)

// Error is the single domain error type returned by workflow operations.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(string(e.Kind))
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, e.Fields[k])
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the package
// sentinels match any error carrying that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithOp returns a copy of e tagged with the operation name.
func (e *Error) WithOp(op string) *Error {
	cp := *e
	cp.Op = op
	return &cp
}

func NotFoundOrAlreadyProcessed(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFoundOrAlreadyProcessed, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidationFailure, Message: fmt.Sprintf(format, args...)}
}

// ValidationFields builds a validation failure carrying per-field messages.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidationFailure, Message: "validation failed", Fields: fields}
}

func Invariant(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvariantViolation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As is a convenience wrapper around errors.As for *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
