package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ToolCallRequest is one pending call from the agent: an identifier
// unique within its batch, a tool name, and raw JSON arguments.
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments string
}

// ToolCallResult pairs a request identifier with the single textual
// output the agent boundary accepts. A result is always produced, even
// on failure — errors are encoded in Output, never raised.
type ToolCallResult struct {
	ID     string
	Output string
}

// Dispatcher executes batches of tool calls against a registry.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger

	// callTimeout bounds each tool-server round trip. Zero means 60s.
	callTimeout time.Duration
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, callTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return &Dispatcher{
		registry:    registry,
		logger:      logger,
		callTimeout: callTimeout,
	}
}

// ExecuteBatch runs every request and returns exactly one result per
// request, in input order, with matching identifiers — regardless of
// internal completion order. Failures of any kind (unknown tool, bad
// arguments, server error, timeout) become error text in the result,
// never an escaping error: the agent boundary carries only strings.
//
// Requests run concurrently; the shared session transport serializes
// the actual wire exchanges. If the governing turn is abandoned,
// in-flight calls are allowed to finish — each call is bounded by the
// dispatcher's own per-call timeout rather than the caller's context,
// since partial protocol state on a shared stream cannot be safely
// discarded.
func (d *Dispatcher) ExecuteBatch(ctx context.Context, requests []ToolCallRequest) []ToolCallResult {
	results := make([]ToolCallResult, len(requests))

	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req ToolCallRequest) {
			defer wg.Done()
			results[i] = ToolCallResult{
				ID:     req.ID,
				Output: d.executeOne(ctx, req),
			}
		}(i, req)
	}
	wg.Wait()

	return results
}

// executeOne resolves and runs a single request, converting every
// failure mode to text.
func (d *Dispatcher) executeOne(ctx context.Context, req ToolCallRequest) string {
	tool := d.registry.Get(req.Name)
	if tool == nil {
		d.logger.Warn("tool call for unregistered tool", "tool", req.Name, "call_id", req.ID)
		return fmt.Sprintf("tool not found: %s", req.Name)
	}

	var args map[string]any
	if req.Arguments != "" {
		if err := json.Unmarshal([]byte(req.Arguments), &args); err != nil {
			d.logger.Warn("tool call with malformed arguments",
				"tool", req.Name,
				"call_id", req.ID,
				"error", err,
			)
			return fmt.Sprintf("invalid arguments for tool '%s': %v", req.Name, err)
		}
	}

	// Detach from caller cancellation: a turn that is abandoned
	// mid-call must not interrupt the shared stream mid-protocol.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.callTimeout)
	defer cancel()

	start := time.Now()
	output, err := tool.Handler(callCtx, args)
	elapsed := time.Since(start)

	if err != nil {
		d.logger.Warn("tool call failed",
			"tool", req.Name,
			"call_id", req.ID,
			"elapsed", elapsed,
			"error", err,
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Sprintf("tool '%s' timed out after %s", req.Name, d.callTimeout)
		}
		return fmt.Sprintf("error executing tool '%s': %v", req.Name, err)
	}

	d.logger.Debug("tool call completed",
		"tool", req.Name,
		"call_id", req.ID,
		"elapsed", elapsed,
		"output_len", len(output),
	)
	return output
}
