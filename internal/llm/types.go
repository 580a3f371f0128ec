// Package llm provides the chat backend that drives the bridge: an
// Ollama-compatible client speaking the function-calling protocol.
// It is deliberately narrow — relay needs chat-with-tools and nothing
// else from the provider. Credential handling is out of scope.
package llm

import "time"

// Message represents a chat message for the LLM.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool responses
}

// ToolCall represents a tool call from the model.
type ToolCall struct {
	// ID correlates the call with its tool_result message. Providers
	// that do not assign one get a synthesized ID at the client
	// boundary so correlation is always possible.
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

// ChatResponse is the response to one chat turn.
type ChatResponse struct {
	Model     string
	CreatedAt time.Time
	Message   Message
	Done      bool

	// Token usage
	InputTokens  int
	OutputTokens int

	// Timing (populated when available)
	TotalDuration time.Duration
	EvalDuration  time.Duration
}
