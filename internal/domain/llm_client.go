package domain

import "context"

// Message is one chat turn sent to the completion provider.
type Message struct {
	Role    string
	Content string
}

// CompletionOptions bound a single completion call. Zero values leave the
// provider default in place.
type CompletionOptions struct {
	MaxTokens        int
	Temperature      float64
	FrequencyPenalty float64
}

// LLMClient defines the capability to send chat messages to a completion
// provider and receive text back, either whole or as a stream of deltas.
type LLMClient interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
	CompleteStream(ctx context.Context, messages []Message, opts CompletionOptions) (<-chan string, <-chan error, error)
	Version() string
}
