package mcp

import (
	"encoding/json"
	"fmt"
)

// jsonrpcVersion tags every frame on the wire; MCP mandates JSON-RPC 2.0.
const jsonrpcVersion = "2.0"

// Request is an outbound request frame. IDs are int64 because relay
// allocates them from a per-client monotonic counter; the protocol
// also permits string IDs but relay never produces one.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewRequest builds a request frame for the given method and params.
func NewRequest(id int64, method string, params any) *Request {
	return &Request{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// Notification is a request frame without an ID; no response follows.
// Relay sends exactly one, notifications/initialized, but servers may
// emit their own at any time (the transport skips them by ID mismatch).
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewNotification builds a notification frame.
func NewNotification(method string, params any) *Notification {
	return &Notification{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
	}
}

// Response is an inbound response frame. Result is kept raw; each
// protocol operation decodes it into its own payload type. In a
// well-formed response exactly one of Result or Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a response. Servers may attach an
// additional data member; relay never reads it, so it is not decoded.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}
