package ai

import (
	"context"
)

// ToolSchema describes a function tool forced on the model to constrain its
// output to a JSON document matching Parameters (a JSON Schema object).
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is one completion call: a system prompt, a user prompt, and an
// optional tool schema. With a Tool set the model must answer through the
// tool; without one it answers as free text.
type Request struct {
	System string
	User   string
	Tool   *ToolSchema
}

// Result is the raw outcome of a completion call before domain parsing
type Result struct {
	// Text is the assistant's free-text content (no Tool requested)
	Text string
	// Arguments is the raw JSON payload of the forced tool call
	Arguments string
}

// Completer is the single transport contract every recommendation mode
// shares. Implementations make exactly one request: no retry, no backoff, no
// streaming. A failed call requires explicit caller re-invocation.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Result, error)
}
