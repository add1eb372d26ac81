package backend

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrEmptyCompletion is returned when the gateway answered but produced
	// no usable text.
	ErrEmptyCompletion = errors.New("backend: empty completion")

	// ErrNoAPIKey is returned when a client is constructed without credentials.
	ErrNoAPIKey = errors.New("backend: missing API key")
)

// CompletionRequest carries everything one chat-completion call needs.
type CompletionRequest struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	// Timeout bounds this single call. Zero means the caller's context rules.
	Timeout time.Duration
}

// Backend abstracts a chat-completion capability. The engine is agnostic to
// the concrete provider; any implementation that turns a prompt pair into
// text will do.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// StructuredBackend additionally supports provider-native schema-constrained
// generation. The returned bytes are guaranteed by the provider to match the
// supplied JSON schema, so callers skip free-text extraction entirely.
type StructuredBackend interface {
	Backend
	CompleteStructured(ctx context.Context, req CompletionRequest, schemaName string, schema json.RawMessage) (json.RawMessage, error)
}
