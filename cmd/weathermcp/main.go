// Weathermcp is a sample MCP tool server speaking newline-delimited
// JSON-RPC 2.0 on stdio. It exposes two tools backed by the US
// National Weather Service API: get_forecast(latitude, longitude) and
// get_alerts(state).
//
// It exists so relay can be exercised end to end without any external
// MCP server, and doubles as a reference for the wire exchanges the
// bridge performs. Logs go to stderr; stdout carries only protocol.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mkemble/relay/internal/buildinfo"
	"github.com/mkemble/relay/internal/mcp"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv := &server{
		nws:    newNWSClient(""),
		logger: logger,
	}

	if err := srv.serve(context.Background(), os.Stdin, os.Stdout); err != nil {
		logger.Error("server terminated", "error", err)
		os.Exit(1)
	}
}

// incoming is a decoded request or notification. Notifications carry
// no ID and get no response.
type incoming struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// server handles the MCP request loop for the weather tools.
type server struct {
	nws    *nwsClient
	logger *slog.Logger
}

// serve reads newline-delimited JSON-RPC messages from r until EOF.
func (s *server) serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg incoming
		if err := json.Unmarshal(line, &msg); err != nil {
			s.logger.Warn("skipping malformed message", "error", err)
			continue
		}

		if msg.ID == nil {
			// Notification; nothing to answer.
			s.logger.Debug("notification", "method", msg.Method)
			continue
		}

		resp := s.handle(ctx, &msg)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	return scanner.Err()
}

// handle dispatches one request to its method handler.
func (s *server) handle(ctx context.Context, msg *incoming) *mcp.Response {
	s.logger.Debug("request", "method", msg.Method, "id", *msg.ID)

	var result any
	var rpcErr *mcp.RPCError

	switch msg.Method {
	case "initialize":
		result = s.handleInitialize()
	case "ping":
		result = map[string]any{}
	case "tools/list":
		result = s.handleListTools()
	case "tools/call":
		result, rpcErr = s.handleCallTool(ctx, msg.Params)
	default:
		rpcErr = &mcp.RPCError{Code: -32601, Message: "method not found: " + msg.Method}
	}

	resp := &mcp.Response{JSONRPC: "2.0", ID: *msg.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
		return resp
	}

	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = &mcp.RPCError{Code: -32603, Message: "marshal result: " + err.Error()}
		return resp
	}
	resp.Result = data
	return resp
}

func (s *server) handleInitialize() any {
	return map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "weathermcp",
			"version": buildinfo.Version,
		},
	}
}

func (s *server) handleListTools() any {
	return map[string]any{
		"tools": []mcp.ToolDefinition{
			{
				Name:        "get_forecast",
				Description: "Get the weather forecast for a specific latitude/longitude.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"latitude": map[string]any{
							"type":        "number",
							"description": "Latitude of the location",
						},
						"longitude": map[string]any{
							"type":        "number",
							"description": "Longitude of the location",
						},
					},
					"required": []string{"latitude", "longitude"},
				},
			},
			{
				Name:        "get_alerts",
				Description: "Get active weather alerts for a US state.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"state": map[string]any{
							"type":        "string",
							"description": "Two-letter US state code (e.g. CA, NY)",
						},
					},
					"required": []string{"state"},
				},
			},
		},
	}
}

// callParams is the tools/call request payload.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// handleCallTool runs one tool. Tool-level failures are reported in
// the MCP way — an isError result with the description as text — so
// the client can surface them without aborting the session.
func (s *server) handleCallTool(ctx context.Context, params json.RawMessage) (any, *mcp.RPCError) {
	var call callParams
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &mcp.RPCError{Code: -32602, Message: "invalid params: " + err.Error()}
	}

	text, err := s.runTool(ctx, call)
	if err != nil {
		s.logger.Warn("tool failed", "tool", call.Name, "error", err)
		return map[string]any{
			"content": []mcp.ContentBlock{{Type: "text", Text: err.Error()}},
			"isError": true,
		}, nil
	}

	return map[string]any{
		"content": []mcp.ContentBlock{{Type: "text", Text: text}},
	}, nil
}

func (s *server) runTool(ctx context.Context, call callParams) (string, error) {
	switch call.Name {
	case "get_forecast":
		lat, ok1 := floatArg(call.Arguments, "latitude")
		lon, ok2 := floatArg(call.Arguments, "longitude")
		if !ok1 || !ok2 {
			return "", fmt.Errorf("get_forecast requires numeric latitude and longitude")
		}
		return s.nws.Forecast(ctx, lat, lon)
	case "get_alerts":
		state, _ := call.Arguments["state"].(string)
		if state == "" {
			return "", fmt.Errorf("get_alerts requires a state code")
		}
		return s.nws.Alerts(ctx, state)
	default:
		return "", fmt.Errorf("unknown tool: %s", call.Name)
	}
}

// floatArg reads a numeric argument, accepting the float64 that
// encoding/json produces for all JSON numbers.
func floatArg(args map[string]any, key string) (float64, bool) {
	v, ok := args[key].(float64)
	return v, ok
}
