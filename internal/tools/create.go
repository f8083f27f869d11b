// create.go — Node creation tools.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
)

// shapeParams covers rectangle and frame creation.
type shapeParams struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Name     string  `json:"name,omitempty"`
	ParentID string  `json:"parentId,omitempty"`
}

func shapeSchema(what string) map[string]any {
	return objectSchema(map[string]any{
		"x":        numberProp("X position"),
		"y":        numberProp("Y position"),
		"width":    numberProp("Width of the " + what),
		"height":   numberProp("Height of the " + what),
		"name":     stringProp("Optional name for the " + what),
		"parentId": stringProp("Optional parent node ID to append the " + what + " to"),
	}, "x", "y", "width", "height")
}

func validateShape(schema map[string]any, args json.RawMessage) (*shapeParams, error) {
	p, err := decode[shapeParams](schema, args)
	if err != nil {
		return nil, err
	}
	if p.Width <= 0 {
		return nil, &ValidationError{Field: "width", Reason: "must be greater than 0"}
	}
	if p.Height <= 0 {
		return nil, &ValidationError{Field: "height", Reason: "must be greater than 0"}
	}
	return p, nil
}

// create_rectangle

type createRectangle struct{}

func (t *createRectangle) Name() string { return "create_rectangle" }

func (t *createRectangle) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Create a new rectangle in the canvas",
		InputSchema: shapeSchema("rectangle"),
	}
}

func (t *createRectangle) Validate(args json.RawMessage) (any, error) {
	return validateShape(t.Describe().InputSchema, args)
}

func (t *createRectangle) BuildCommand(params any) (string, any) {
	return "create_rectangle", params.(*shapeParams)
}

func (t *createRectangle) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*shapeParams)
	return mcp.RawJSONResult(
		fmt.Sprintf("Created rectangle %gx%g at (%g, %g):", p.Width, p.Height, p.X, p.Y),
		resultOrNull(result))
}

// create_frame

type createFrame struct{}

func (t *createFrame) Name() string { return "create_frame" }

func (t *createFrame) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Create a new frame in the canvas",
		InputSchema: shapeSchema("frame"),
	}
}

func (t *createFrame) Validate(args json.RawMessage) (any, error) {
	return validateShape(t.Describe().InputSchema, args)
}

func (t *createFrame) BuildCommand(params any) (string, any) {
	return "create_frame", params.(*shapeParams)
}

func (t *createFrame) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*shapeParams)
	return mcp.RawJSONResult(
		fmt.Sprintf("Created frame %gx%g at (%g, %g):", p.Width, p.Height, p.X, p.Y),
		resultOrNull(result))
}

// create_text

type textParams struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize,omitempty"`
	Name     string  `json:"name,omitempty"`
	ParentID string  `json:"parentId,omitempty"`
}

type createText struct{}

func (t *createText) Name() string { return "create_text" }

func (t *createText) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Create a new text node in the canvas",
		InputSchema: objectSchema(map[string]any{
			"x":        numberProp("X position"),
			"y":        numberProp("Y position"),
			"text":     stringProp("Text content"),
			"fontSize": numberProp("Optional font size (default 14)"),
			"name":     stringProp("Optional name for the text node"),
			"parentId": stringProp("Optional parent node ID to append the text to"),
		}, "x", "y", "text"),
	}
}

func (t *createText) Validate(args json.RawMessage) (any, error) {
	p, err := decode[textParams](t.Describe().InputSchema, args)
	if err != nil {
		return nil, err
	}
	if p.FontSize < 0 {
		return nil, &ValidationError{Field: "fontSize", Reason: "must be greater than 0"}
	}
	return p, nil
}

func (t *createText) BuildCommand(params any) (string, any) {
	return "create_text", params.(*textParams)
}

func (t *createText) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*textParams)
	return mcp.RawJSONResult(
		fmt.Sprintf("Created text node at (%g, %g):", p.X, p.Y),
		resultOrNull(result))
}
