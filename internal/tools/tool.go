// tool.go — The tool contract and schema-backed argument validation.
// A Tool shapes one canvas operation: it validates raw JSON arguments into
// its own typed params, builds the downstream command, and formats the raw
// plugin result. Tools hold no mutable state and may be invoked concurrently.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
)

// Tool is one invokable canvas operation.
type Tool interface {
	Name() string
	Describe() mcp.ToolDescriptor
	// Validate checks raw arguments and returns the tool's typed params.
	Validate(args json.RawMessage) (any, error)
	// BuildCommand maps validated params to a plugin method and its params.
	BuildCommand(params any) (method string, cmdParams any)
	// FormatResult turns the raw plugin result into an MCP tool result.
	FormatResult(result json.RawMessage, params any) json.RawMessage
}

// ValidationError names the offending field so the assistant can fix the
// call without guessing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Reason
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// ValidateSchema checks args against a JSON schema and returns a
// ValidationError for the first violation. Empty args validate as {}.
func ValidateSchema(schema map[string]any, args json.RawMessage) error {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewBytesLoader(args),
	)
	if err != nil {
		return &ValidationError{Reason: "not a JSON object: " + err.Error()}
	}
	if result.Valid() {
		return nil
	}
	first := result.Errors()[0]
	field := first.Field()
	if field == "(root)" {
		if prop, ok := first.Details()["property"].(string); ok {
			field = prop
		}
	}
	return &ValidationError{Field: field, Reason: first.Description()}
}

// decode runs schema validation and unmarshals args into T.
func decode[T any](schema map[string]any, args json.RawMessage) (*T, error) {
	if err := ValidateSchema(schema, args); err != nil {
		return nil, err
	}
	params := new(T)
	if len(args) > 0 {
		if err := json.Unmarshal(args, params); err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
	}
	return params, nil
}

// Schema builder helpers. Schemas stay draft-04 compatible, the dialect the
// validator and every known MCP client agree on.

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func numberProp(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

// resultOrNull keeps formatted output valid JSON when the plugin returned
// an empty result.
func resultOrNull(result json.RawMessage) json.RawMessage {
	if len(result) == 0 {
		return json.RawMessage(`null`)
	}
	return result
}
