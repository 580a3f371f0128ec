package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mkemble/relay/internal/buildinfo"
)

// protocolVersion is the MCP protocol version we advertise during initialization.
const protocolVersion = "2024-11-05"

// ToolDefinition is an MCP tool descriptor as returned by tools/list.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// CallResult is the result payload of a tools/call response: an ordered
// list of heterogeneous content blocks, plus the server's error flag.
type CallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// toolsListResult is the result payload of a tools/list response page.
type toolsListResult struct {
	Tools      []ToolDefinition `json:"tools"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// serverInfo is returned in the initialize response.
type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// serverCapabilities describes what an MCP server supports.
type serverCapabilities struct {
	Tools *struct{} `json:"tools,omitempty"`
}

// initializeResult is the full initialize response result.
type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      serverInfo         `json:"serverInfo"`
	Capabilities    serverCapabilities `json:"capabilities"`
}

// Client connects to a single MCP server and provides typed access to
// the MCP protocol operations (initialize, tools/list, tools/call).
type Client struct {
	name      string
	transport Transport
	logger    *slog.Logger
	nextID    atomic.Int64

	mu          sync.RWMutex
	initialized bool
	sessionGen  uint64
	serverName  string
	serverVer   string
	tools       []ToolDefinition
}

// NewClient creates an MCP client for the given server. The transport
// determines how messages are delivered.
func NewClient(name string, transport Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		name:      name,
		transport: transport,
		logger:    logger.With("mcp_server", name),
	}
}

// Name returns the server name this client is connected to.
func (c *Client) Name() string {
	return c.name
}

// Initialize performs the MCP handshake: sends an initialize request
// and then the notifications/initialized notification.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handshake(ctx)
}

// handshake runs the initialize exchange. Caller must hold c.mu.
func (c *Client) handshake(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "relay",
			"version": buildinfo.Version,
		},
	}

	resp, err := c.send(ctx, "initialize", params)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	var result initializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("unmarshal initialize result: %w", err)
	}

	c.initialized = true
	c.serverName = result.ServerInfo.Name
	c.serverVer = result.ServerInfo.Version
	if r, ok := c.transport.(Restarter); ok {
		c.sessionGen = r.Generation()
	}

	c.logger.Info("MCP server initialized",
		"server_name", result.ServerInfo.Name,
		"server_version", result.ServerInfo.Version,
		"protocol_version", result.ProtocolVersion,
	)

	// Send the initialized notification to complete the handshake.
	if err := c.transport.Notify(ctx, NewNotification("notifications/initialized", nil)); err != nil {
		return fmt.Errorf("send initialized notification: %w", err)
	}

	return nil
}

// ensureSession repeats the MCP handshake when the transport has
// replaced its connection since the last one. A subprocess respawned
// after a timeout knows nothing of the earlier initialize exchange,
// and a conforming server rejects requests sent before one.
func (c *Client) ensureSession(ctx context.Context) error {
	r, ok := c.transport.(Restarter)
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized || r.Generation() == c.sessionGen {
		return nil
	}

	c.logger.Warn("transport connection was replaced, repeating handshake")
	return c.handshake(ctx)
}

// ListTools enumerates the server's tools via tools/list, following
// pagination cursors until the listing is exhausted. Server order is
// preserved across pages; the client does not re-sort.
//
// The descriptor set is fixed at discovery time: results are cached
// and subsequent calls return the identical slice. Transport failures
// and malformed payloads surface as *DiscoveryError.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	c.mu.RLock()
	if c.tools != nil {
		defer c.mu.RUnlock()
		return c.tools, nil
	}
	c.mu.RUnlock()

	if err := c.ensureSession(ctx); err != nil {
		return nil, &DiscoveryError{Err: err}
	}

	var all []ToolDefinition
	cursor := ""
	for page := 0; ; page++ {
		var params any
		if cursor != "" {
			params = map[string]any{"cursor": cursor}
		}

		resp, err := c.send(ctx, "tools/list", params)
		if err != nil {
			return nil, &DiscoveryError{Err: fmt.Errorf("tools/list page %d: %w", page, err)}
		}

		var result toolsListResult
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return nil, &DiscoveryError{Err: fmt.Errorf("unmarshal tools/list page %d: %w", page, err)}
		}

		all = append(all, result.Tools...)

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	c.mu.Lock()
	c.tools = all
	c.mu.Unlock()

	c.logger.Info("discovered MCP tools", "count", len(all))
	return all, nil
}

// CallTool invokes a tool by name with the given arguments and returns
// the raw heterogeneous result. Callers normalize the content with
// [FormatContent]; a result with IsError set carries the server-side
// failure description in its content.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}

	if args == nil {
		args = map[string]any{}
	}
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}

	resp, err := c.send(ctx, "tools/call", params)
	if err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}

	var result CallResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("unmarshal tools/call result: %w", err)
	}

	return &result, nil
}

// Ping checks whether the MCP server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}
	_, err := c.send(ctx, "ping", nil)
	return err
}

// ServerInfo returns the name and version the server reported during
// the handshake.
func (c *Client) ServerInfo() (name, version string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverName, c.serverVer
}

// Close shuts down the client and its transport.
func (c *Client) Close() error {
	c.logger.Info("closing MCP client")
	return c.transport.Close()
}

// send issues a JSON-RPC request and checks for protocol-level errors.
func (c *Client) send(ctx context.Context, method string, params any) (*Response, error) {
	id := c.nextID.Add(1)
	req := NewRequest(id, method, params)

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp, nil
}
