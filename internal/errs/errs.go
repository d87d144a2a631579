// Package errs is the structured failure taxonomy shared by every capability.
//
// A single Error type carries the context payload; Kind tags the failure so
// callers can branch with errors.Is(err, errs.DivisionByZero) or KindOf(err).
package errs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the machine-readable failure tag.
type Kind int

const (
	ToolError Kind = iota
	InvalidInput
	InvalidSyntax
	InvalidDataset
	ResultTooLarge
	DivisionByZero
	Overflow
	NetworkError
	NotFound
	Disambiguation
	APIError
	ValidationError
	ConfigurationError
	AuthenticationError
)

var kindNames = map[Kind]string{
	ToolError:           "ToolError",
	InvalidInput:        "InvalidInput",
	InvalidSyntax:       "InvalidSyntax",
	InvalidDataset:      "InvalidDataset",
	ResultTooLarge:      "ResultTooLarge",
	DivisionByZero:      "DivisionByZero",
	Overflow:            "Overflow",
	NetworkError:        "NetworkError",
	NotFound:            "NotFound",
	Disambiguation:      "Disambiguation",
	APIError:            "APIError",
	ValidationError:     "ValidationError",
	ConfigurationError:  "ConfigurationError",
	AuthenticationError: "AuthenticationError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error implements error so a bare Kind can be used as an errors.Is target.
func (k Kind) Error() string { return k.String() }

// Category groups kinds into the five coarse families callers branch on.
func (k Kind) Category() Kind {
	switch k {
	case InvalidInput, InvalidSyntax, InvalidDataset, ValidationError:
		return ValidationError
	case NetworkError, NotFound, Disambiguation, APIError:
		return APIError
	case ConfigurationError:
		return ConfigurationError
	case AuthenticationError:
		return AuthenticationError
	default:
		return ToolError
	}
}

// Error is the structured failure value.
type Error struct {
	Kind    Kind
	Message string
	Time    time.Time
	Op      string
	Args    map[string]any
	Details map[string]any

	Cause     error
	CauseText string
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.CauseText != "" {
		sb.WriteString(" (")
		sb.WriteString(e.CauseText)
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches a Kind target against both the exact kind and its category.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	if !ok {
		return false
	}
	return e.Kind == k || e.Kind.Category() == k
}

// With attaches a detail and returns e for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithArgs records the call arguments for diagnostics.
func (e *Error) WithArgs(args map[string]any) *Error {
	e.Args = args
	return e
}

// Fields flattens the error into the key/value view written to logs.
func (e *Error) Fields() map[string]any {
	out := map[string]any{
		"kind":     e.Kind.String(),
		"category": e.Kind.Category().String(),
		"message":  e.Message,
		"time":     e.Time.Format(time.RFC3339Nano),
	}
	if e.Op != "" {
		out["op"] = e.Op
	}
	if e.CauseText != "" {
		out["cause"] = e.CauseText
	}
	if len(e.Args) > 0 {
		out["args"] = e.Args
	}
	if len(e.Details) > 0 {
		out["details"] = e.Details
	}
	return out
}

// New creates an error at the point of failure.
func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Time:    time.Now(),
		Op:      op,
	}
}

// Newf is New with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return New(kind, op, fmt.Sprintf(format, args...))
}

// Wrap re-classifies cause. A cause that already is an *Error keeps its kind
// and message; only the missing op is filled in.
func Wrap(kind Kind, op string, cause error, message string) *Error {
	if cause == nil {
		return New(kind, op, message)
	}
	var existing *Error
	if errors.As(cause, &existing) {
		if existing.Op == "" {
			existing.Op = op
		}
		return existing
	}
	e := New(kind, op, message)
	e.Cause = cause
	e.CauseText = cause.Error()
	return e
}

// KindOf reports the kind of err, or ToolError for unclassified faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ToolError
}

// From returns err as an *Error, wrapping unclassified faults as ToolError.
func From(op string, err error) *Error {
	return Wrap(ToolError, op, err, "internal tool failure")
}
