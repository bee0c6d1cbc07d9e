package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Error kinds. Callers match with errors.Is; the concrete *Error carries
// status and field details.
var (
	// ErrNetwork means no response was received at all: connectivity loss
	// or timeout. Distinct from a server that answered with an error.
	ErrNetwork = errors.New("no response from server")
	// ErrUnauthorized means the server rejected the credential (401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation means a 4xx response carrying structured field errors.
	ErrValidation = errors.New("validation failed")
	// ErrServer covers 5xx and unclassified 4xx responses.
	ErrServer = errors.New("server error")
)

// Error is a classified failure from the HTTP client layer.
type Error struct {
	Status  int
	Message string
	// Fields holds per-field validation messages for ErrValidation.
	Fields map[string][]string

	kind  error
	cause error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// FirstFieldError returns the first field-level validation message, in
// deterministic field order, or an empty string.
func (e *Error) FirstFieldError() string {
	if len(e.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if len(e.Fields[name]) > 0 {
			return e.Fields[name][0]
		}
	}
	return ""
}

func networkError(cause error) *Error {
	return &Error{
		Message: "request failed",
		kind:    ErrNetwork,
		cause:   cause,
	}
}

// classify maps a non-2xx response to an Error. 401 is an auth rejection,
// a 4xx body of the shape {"field": ["message", ...]} is a validation
// failure, and everything else is a server error.
func classify(status int, body []byte) *Error {
	if status == 401 {
		return &Error{Status: status, Message: "credential rejected", kind: ErrUnauthorized}
	}

	if status >= 400 && status < 500 {
		if fields := parseFieldErrors(body); len(fields) > 0 {
			return &Error{Status: status, Message: "validation failed", Fields: fields, kind: ErrValidation}
		}
	}

	return &Error{Status: status, Message: "request rejected", kind: ErrServer}
}

// parseFieldErrors extracts {"field": ["msg", ...]} structures. A bare
// {"detail": "..."} body is not a field error map.
func parseFieldErrors(body []byte) map[string][]string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	fields := make(map[string][]string)
	for name, value := range raw {
		list, ok := value.([]any)
		if !ok {
			continue
		}
		var messages []string
		for _, item := range list {
			if msg, ok := item.(string); ok {
				messages = append(messages, msg)
			}
		}
		if len(messages) > 0 {
			fields[name] = messages
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
