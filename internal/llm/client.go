package llm

import "context"

// Client is the interface the bridge requires from a chat backend.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	// tools carries the function definitions published for this session.
	Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
