// Package bridge builds LLM-callable wrappers around discovered MCP
// tools and dispatches batches of tool calls against them.
package bridge

import (
	"context"
	"log/slog"

	"github.com/mkemble/relay/internal/mcp"
	"github.com/mkemble/relay/internal/schema"
)

// Tool is one bridged MCP tool: the agent-facing definition plus the
// handler that performs the remote call.
type Tool struct {
	Name        string
	Description string
	Parameters  *schema.ParameterSchema
	Handler     func(ctx context.Context, args map[string]any) (string, error)
}

// Options controls how discovered tools are bridged.
type Options struct {
	// Include limits bridging to these MCP tool names. Empty = all.
	Include []string

	// Exclude skips these MCP tool names. Ignored when Include is
	// non-empty.
	Exclude []string

	// Format tunes result normalization for every wrapper.
	Format mcp.FormatOptions
}

// Registry maps tool names to bridged tools. It is built once per
// session and read-only afterwards.
type Registry struct {
	tools  map[string]*Tool
	order  []string
	logger *slog.Logger

	// skipped counts tools dropped because their input schema could
	// not be represented.
	skipped int
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register adds a tool. A name collision overwrites the earlier entry
// with a warning — the tool namespace is server-defined and not
// validated for uniqueness.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; exists {
		r.logger.Warn("duplicate tool name, keeping later definition", "tool", t.Name)
	} else {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Skipped returns the number of discovered tools dropped during Build
// because their schemas were unrepresentable.
func (r *Registry) Skipped() int {
	return r.skipped
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions renders all tools as "function" definitions for the LLM.
func (r *Registry) Definitions() []map[string]any {
	defs := make([]map[string]any, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return defs
}

// Build translates the discovered descriptors and registers one
// wrapper per representable tool. Each wrapper closes over exactly two
// immutable values: the MCP tool name and the shared session client.
//
// Tools whose schemas cannot be represented are skipped with a logged
// reason; translation never aborts discovery for sibling tools.
func Build(client *mcp.Client, descriptors []mcp.ToolDefinition, opts Options, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := NewRegistry(logger)

	includeSet := toSet(opts.Include)
	excludeSet := toSet(opts.Exclude)

	for _, td := range descriptors {
		if len(includeSet) > 0 {
			if !includeSet[td.Name] {
				continue
			}
		} else if excludeSet[td.Name] {
			continue
		}

		params, warnings, err := schema.Convert(td.InputSchema)
		for _, w := range warnings {
			logger.Warn("schema translation degraded", "tool", td.Name, "detail", w)
		}
		if err != nil {
			r.skipped++
			logger.Warn("skipping tool with unrepresentable schema",
				"tool", td.Name,
				"reason", err,
			)
			continue
		}

		r.Register(wrapTool(client, td, params, opts.Format))

		logger.Debug("bridged MCP tool", "tool", td.Name)
	}

	if r.skipped > 0 {
		logger.Warn("some discovered tools were skipped",
			"skipped", r.skipped,
			"registered", r.Len(),
		)
	}

	return r
}

// wrapTool creates the callable for one descriptor. The handler sends
// a tools/call for the captured name, normalizes the heterogeneous
// result to one string, and reports server-side tool failures as
// ordinary errors carrying the formatted content.
func wrapTool(client *mcp.Client, td mcp.ToolDefinition, params *schema.ParameterSchema, format mcp.FormatOptions) *Tool {
	name := td.Name

	desc := td.Description
	if desc == "" {
		desc = "Executes the MCP tool '" + name + "'."
	}

	return &Tool{
		Name:        name,
		Description: desc,
		Parameters:  params,
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			result, err := client.CallTool(ctx, name, args)
			if err != nil {
				return "", err
			}
			text := mcp.FormatContent(result.Content, format)
			if result.IsError {
				return "", &toolError{name: name, text: text}
			}
			return text, nil
		},
	}
}

// toolError is a server-reported tool failure.
type toolError struct {
	name string
	text string
}

func (e *toolError) Error() string {
	return "tool " + e.name + " reported an error: " + e.text
}

// toSet converts a string slice to a set for O(1) lookups.
func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}
