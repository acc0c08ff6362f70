package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to react to the failure
// mode rather than the message.
type Kind string

const (
	// SchemaUnavailable means the origin schema could not be introspected at
	// session start. Fatal for the session being created.
	SchemaUnavailable Kind = "schema_unavailable"

	// TypeExpansionFailed means a single lazy type introspection failed. The
	// branch cannot be expanded but the session continues.
	TypeExpansionFailed Kind = "type_expansion_failed"

	// EmbeddingUnavailable means the embedding provider could not be reached.
	// Agentic discovery degrades to lexical scoring.
	EmbeddingUnavailable Kind = "embedding_unavailable"

	// UnknownTool means the caller invoked a tool name that is not registered.
	UnknownTool Kind = "unknown_tool"

	// InvalidArguments means the caller's arguments do not satisfy the tool's
	// argument schema.
	InvalidArguments Kind = "invalid_arguments"

	// OriginUnavailable means the origin endpoint could not be reached, after
	// the single allowed retry for read operations.
	OriginUnavailable Kind = "origin_unavailable"
)

// Error carries a kind and a human-readable message. Errors local to a
// single tool invocation never terminate the session.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or "" when err carries no kind.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
