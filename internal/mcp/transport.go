package mcp

import "context"

// Restarter is implemented by transports that discard and lazily
// re-establish their underlying connection after a failure. Generation
// increments each time a connection is discarded; callers that
// performed connection-scoped setup compare generations to learn it
// must be repeated on the replacement.
type Restarter interface {
	Generation() uint64
}

// Transport is the interface for MCP server communication.
// Implementations handle the details of sending JSON-RPC requests and
// receiving responses over a specific transport.
type Transport interface {
	// Send sends a JSON-RPC request and returns the response.
	// The transport handles framing, encoding, and correlation.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Notify sends a JSON-RPC notification (no response expected).
	Notify(ctx context.Context, notif *Notification) error

	// Close shuts down the transport and releases resources.
	// For stdio transports this terminates the subprocess.
	Close() error
}
