// response.go — Tool-result construction helpers.
// Every helper returns a fully marshaled result so callers can drop it
// straight into a Response without a second error path.
package mcp

import (
	"encoding/json"
	"fmt"
	"os"
)

const marshalFallback = `{"content":[{"type":"text","text":"Internal error: failed to marshal result"}],"isError":true}`

// SafeMarshal performs defensive JSON marshaling with a fallback value.
func SafeMarshal(v any, fallback string) json.RawMessage {
	out, err := json.Marshal(v)
	if err != nil {
		// Should never happen with plain structs; keep the session alive anyway.
		fmt.Fprintf(os.Stderr, "[drawbridge] marshal error: %v\n", err)
		return json.RawMessage(fallback)
	}
	return json.RawMessage(out)
}

// TextResult constructs a tool result containing a single text block.
func TextResult(text string) json.RawMessage {
	return SafeMarshal(ToolResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}, marshalFallback)
}

// ErrorResult constructs a tool result flagged as an error.
func ErrorResult(text string) json.RawMessage {
	return SafeMarshal(ToolResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}, marshalFallback)
}

// JSONResult constructs a tool result with a summary line followed by
// compact JSON. Use for nested or variable data.
func JSONResult(summary string, data any) json.RawMessage {
	payload, err := json.Marshal(data)
	if err != nil {
		return ErrorResult("Failed to serialize response: " + err.Error())
	}
	text := string(payload)
	if summary != "" {
		text = summary + "\n" + text
	}
	return TextResult(text)
}

// RawJSONResult is JSONResult for payloads that are already serialized.
func RawJSONResult(summary string, payload json.RawMessage) json.RawMessage {
	text := string(payload)
	if summary != "" {
		text = summary + "\n" + text
	}
	return TextResult(text)
}
