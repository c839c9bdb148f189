// Package llm talks to the local model that produces one half of a merged
// analysis: an Ollama server or any OpenAI-compatible endpoint.
package llm

import "context"

// Provider defines the interface for local model backends.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
