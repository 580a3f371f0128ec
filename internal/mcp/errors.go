package mcp

import "fmt"

// ConnectionError reports that a session could not be established
// within the configured retry budget. It is fatal to bridge startup;
// it never occurs on a session that has already reached the ready state.
type ConnectionError struct {
	Command  string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to MCP server %q failed after %d attempt(s): %v",
		e.Command, e.Attempts, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DiscoveryError reports a failed or malformed tools/list exchange.
// Like ConnectionError it is fatal to bridge startup.
type DiscoveryError struct {
	Err error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("tool discovery failed: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}
