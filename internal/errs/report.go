package errs

import (
	"errors"
	"sort"

	"go.uber.org/zap"
)

var genericMessages = map[Kind]string{
	ToolError:           "The tool failed to complete the request",
	InvalidInput:        "Invalid input",
	InvalidSyntax:       "Invalid syntax",
	InvalidDataset:      "Invalid dataset",
	ResultTooLarge:      "Result too large to display",
	DivisionByZero:      "Division by zero",
	Overflow:            "Number too large to compute",
	NetworkError:        "Network request failed",
	NotFound:            "Nothing found",
	Disambiguation:      "The request is ambiguous",
	APIError:            "The remote service returned an error",
	ValidationError:     "Invalid input",
	ConfigurationError:  "Configuration error",
	AuthenticationError: "Authentication failed, check your API key",
}

// UserMessage renders err as a short human-readable line. Cause text and
// stack details never reach the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return "Error: " + genericMessages[ToolError]
	}
	msg := e.Message
	if msg == "" {
		msg = genericMessages[e.Kind]
	}
	return "Error: " + msg
}

// Log writes the error with its full context at error level, one field per
// entry of Fields in key order.
func (e *Error) Log(logger *zap.Logger) {
	if logger == nil {
		return
	}
	fields := e.Fields()
	delete(fields, "message")
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	logger.Error(e.Message, zf...)
}

// Report finalizes err at a capability boundary: it classifies it, logs it
// once and returns the user-facing string.
func Report(logger *zap.Logger, op string, err error) string {
	if err == nil {
		return ""
	}
	e := From(op, err)
	e.Log(logger)
	return UserMessage(e)
}
