package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Stream delivers completion fragments in arrival order. Recv returns
// io.EOF once the upstream stream is exhausted.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// StreamProvider is a Provider that can also deliver a completion as an
// ordered sequence of text fragments.
type StreamProvider interface {
	Provider
	// StreamComplete opens a streaming completion. The returned Stream
	// must be closed by the caller.
	StreamComplete(ctx context.Context, req CompletionRequest) (Stream, error)
}
