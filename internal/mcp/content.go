package mcp

import (
	"fmt"
	"strings"
)

// Sentinel is returned in place of tool output when a call produced no
// usable text. The agent boundary carries only strings, so "nothing"
// must still be representable as text.
const Sentinel = "tool executed, no text content returned"

// ContentBlock is a single content item in a tools/call response.
// Type is the discriminator; the remaining fields are populated
// depending on it ("text", "image", "audio", "resource", ...).
type ContentBlock struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	MimeType string         `json:"mimeType,omitempty"`
	Data     string         `json:"data,omitempty"`
	Resource map[string]any `json:"resource,omitempty"`
}

// FormatOptions tunes content normalization.
type FormatOptions struct {
	// OmitPlaceholders drops non-text blocks silently instead of
	// representing them with marker tokens.
	OmitPlaceholders bool
}

// FormatContent normalizes a heterogeneous content list into a single
// string for the agent boundary. Text blocks are concatenated in
// source order, newline-separated. Non-text blocks become marker
// tokens ("[image]", "[resource]") unless placeholders are disabled.
// An empty or all-dropped list yields [Sentinel]. FormatContent never
// fails.
func FormatContent(blocks []ContentBlock, opts FormatOptions) string {
	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			parts = append(parts, b.Text)
		case "":
			// Malformed block with no type tag. Salvage text if present.
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		default:
			if !opts.OmitPlaceholders {
				parts = append(parts, fmt.Sprintf("[%s]", b.Type))
			}
		}
	}

	if len(parts) == 0 {
		return Sentinel
	}
	return strings.Join(parts, "\n")
}
