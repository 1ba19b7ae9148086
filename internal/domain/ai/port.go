package ai

import "context"

// CompletionRequest is one chat turn: a fixed system instruction plus the user prompt.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Client sends a single completion request and returns the raw completion text.
// Implementations make exactly one attempt.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
