// Package mcp implements MCP (Model Context Protocol) client support,
// allowing relay to connect to an external MCP tool server and expose
// its tools to the LLM conversation loop.
//
// MCP uses JSON-RPC 2.0 over a stdio transport (subprocess). The client
// discovers tools via tools/list (following pagination cursors) and
// invokes them via tools/call. Call results are heterogeneous content
// lists that are normalized to a single string for the agent boundary.
//
// This implementation covers the client/host side only — relay does
// not act as an MCP server (but see cmd/weathermcp for a sample server
// used in development and testing).
package mcp
