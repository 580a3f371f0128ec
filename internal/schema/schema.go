// Package schema translates MCP tool input schemas into the function
// parameter schema format expected by LLM function calling.
//
// MCP input schemas are JSON-Schema-like trees. Most constructs map
// one-to-one (types, properties, required lists, enums, defaults,
// descriptions, nested objects, array items). Constructs with no
// function-parameter equivalent — composition keywords and $ref —
// degrade to a permissive object with a recorded warning instead of
// failing the whole translation. Only a schema that cannot be
// represented at all yields an error, in which case the single owning
// tool is skipped by the caller rather than aborting discovery.
package schema

import (
	"fmt"
)

// ParameterSchema is the translated parameter schema for one tool.
// It is derived deterministically from an MCP input schema and is
// one-to-one with it.
type ParameterSchema struct {
	Type        string                      `json:"type"`
	Description string                      `json:"description,omitempty"`
	Properties  map[string]*ParameterSchema `json:"properties,omitempty"`
	Required    []string                    `json:"required,omitempty"`
	Items       *ParameterSchema            `json:"items,omitempty"`
	Enum        []any                       `json:"enum,omitempty"`
	Default     any                         `json:"default,omitempty"`
}

// compositionKeywords have no direct function-parameter equivalent.
// Their presence downgrades the fragment to a permissive object.
var compositionKeywords = []string{"oneOf", "anyOf", "allOf", "not", "$ref"}

// validTypes are the JSON schema type tokens we can carry across the
// boundary unchanged.
var validTypes = map[string]bool{
	"object":  true,
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"array":   true,
	"null":    true,
}

// Convert translates an MCP input schema into a ParameterSchema.
// It returns the translation, a list of warnings for fragments that
// degraded to a permissive form, and an error only when the schema is
// unrepresentable as a whole.
//
// A nil or empty input schema is a valid degenerate case: the tool
// takes no arguments, so an empty object schema is returned.
func Convert(inputSchema map[string]any) (*ParameterSchema, []string, error) {
	if len(inputSchema) == 0 {
		return &ParameterSchema{Type: "object", Properties: map[string]*ParameterSchema{}}, nil, nil
	}

	c := &converter{}
	ps, err := c.convert(inputSchema, "$")
	if err != nil {
		return nil, c.warnings, err
	}

	// The agent boundary requires a top-level object.
	if ps.Type != "object" {
		return nil, c.warnings, fmt.Errorf("top-level schema type %q is not an object", ps.Type)
	}
	if ps.Properties == nil {
		ps.Properties = map[string]*ParameterSchema{}
	}

	return ps, c.warnings, nil
}

// converter accumulates warnings across one translation.
type converter struct {
	warnings []string
}

func (c *converter) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// permissive returns the fallback schema for unsupported fragments:
// an object accepting anything, with the description preserved when
// one was present.
func permissive(desc string) *ParameterSchema {
	return &ParameterSchema{Type: "object", Description: desc}
}

// convert translates one schema fragment. path is the JSON-path-style
// location used in warnings ("$.properties.location.items").
func (c *converter) convert(fragment map[string]any, path string) (*ParameterSchema, error) {
	desc, _ := fragment["description"].(string)

	// Composition keywords downgrade the whole fragment.
	for _, kw := range compositionKeywords {
		if _, present := fragment[kw]; present {
			c.warnf("%s: unsupported keyword %q, using permissive object", path, kw)
			return permissive(desc), nil
		}
	}

	ps := &ParameterSchema{Description: desc}

	switch typ := fragment["type"].(type) {
	case nil:
		// No type tag. Enum-only fragments are common; otherwise
		// fall back to string, the least structured scalar.
		if _, hasEnum := fragment["enum"]; hasEnum {
			ps.Type = "string"
		} else if _, hasProps := fragment["properties"]; hasProps {
			ps.Type = "object"
		} else {
			c.warnf("%s: missing type, assuming string", path)
			ps.Type = "string"
		}
	case string:
		if !validTypes[typ] {
			return nil, fmt.Errorf("%s: unknown type %q", path, typ)
		}
		ps.Type = typ
	case []any:
		// Type unions ("type": ["string","null"]) have no direct
		// equivalent; take the first usable member.
		picked := ""
		for _, member := range typ {
			if s, ok := member.(string); ok && validTypes[s] && s != "null" {
				picked = s
				break
			}
		}
		if picked == "" {
			return nil, fmt.Errorf("%s: no usable member in type union %v", path, typ)
		}
		c.warnf("%s: type union %v narrowed to %q", path, typ, picked)
		ps.Type = picked
	default:
		return nil, fmt.Errorf("%s: malformed type tag %T", path, typ)
	}

	if def, present := fragment["default"]; present {
		ps.Default = def
	}

	if rawEnum, present := fragment["enum"]; present {
		values, ok := rawEnum.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: malformed enum %T", path, rawEnum)
		}
		ps.Enum = values
	}

	switch ps.Type {
	case "object":
		if err := c.convertProperties(fragment, ps, path); err != nil {
			return nil, err
		}
	case "array":
		if rawItems, present := fragment["items"]; present {
			itemsMap, ok := rawItems.(map[string]any)
			if !ok {
				c.warnf("%s.items: malformed item schema, using permissive object", path)
				ps.Items = permissive("")
				break
			}
			items, err := c.convert(itemsMap, path+".items")
			if err != nil {
				return nil, err
			}
			ps.Items = items
		}
	}

	return ps, nil
}

// convertProperties translates an object fragment's properties and
// required list into ps.
func (c *converter) convertProperties(fragment map[string]any, ps *ParameterSchema, path string) error {
	rawProps, present := fragment["properties"]
	if present {
		props, ok := rawProps.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: malformed properties %T", path, rawProps)
		}

		ps.Properties = make(map[string]*ParameterSchema, len(props))
		for name, rawProp := range props {
			propMap, ok := rawProp.(map[string]any)
			if !ok {
				return fmt.Errorf("%s.properties.%s: malformed property %T", path, name, rawProp)
			}
			child, err := c.convert(propMap, path+".properties."+name)
			if err != nil {
				return err
			}
			ps.Properties[name] = child
		}
	}

	if rawReq, present := fragment["required"]; present {
		switch req := rawReq.(type) {
		case []any:
			for _, r := range req {
				name, ok := r.(string)
				if !ok {
					return fmt.Errorf("%s: malformed required entry %T", path, r)
				}
				ps.Required = append(ps.Required, name)
			}
		case []string:
			ps.Required = append(ps.Required, req...)
		default:
			return fmt.Errorf("%s: malformed required list %T", path, rawReq)
		}
	}

	return nil
}
