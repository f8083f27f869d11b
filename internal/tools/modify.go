// modify.go — Node mutation tools.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
)

// set_fill_color

type fillColorParams struct {
	NodeID string   `json:"nodeId"`
	R      float64  `json:"r"`
	G      float64  `json:"g"`
	B      float64  `json:"b"`
	A      *float64 `json:"a,omitempty"`
}

type setFillColor struct{}

func (t *setFillColor) Name() string { return "set_fill_color" }

func (t *setFillColor) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Set the fill color of a node (RGBA, each channel 0-1)",
		InputSchema: objectSchema(map[string]any{
			"nodeId": stringProp("The ID of the node to fill"),
			"r":      numberProp("Red channel (0-1)"),
			"g":      numberProp("Green channel (0-1)"),
			"b":      numberProp("Blue channel (0-1)"),
			"a":      numberProp("Optional alpha channel (0-1, default 1)"),
		}, "nodeId", "r", "g", "b"),
	}
}

func (t *setFillColor) Validate(args json.RawMessage) (any, error) {
	p, err := decode[fillColorParams](t.Describe().InputSchema, args)
	if err != nil {
		return nil, err
	}
	for _, ch := range []struct {
		name string
		val  float64
	}{{"r", p.R}, {"g", p.G}, {"b", p.B}} {
		if ch.val < 0 || ch.val > 1 {
			return nil, &ValidationError{Field: ch.name, Reason: "must be between 0 and 1"}
		}
	}
	if p.A != nil && (*p.A < 0 || *p.A > 1) {
		return nil, &ValidationError{Field: "a", Reason: "must be between 0 and 1"}
	}
	return p, nil
}

func (t *setFillColor) BuildCommand(params any) (string, any) {
	p := params.(*fillColorParams)
	alpha := 1.0
	if p.A != nil {
		alpha = *p.A
	}
	return "set_fill_color", map[string]any{
		"nodeId": p.NodeID,
		"color":  map[string]float64{"r": p.R, "g": p.G, "b": p.B, "a": alpha},
	}
}

func (t *setFillColor) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*fillColorParams)
	return mcp.RawJSONResult(fmt.Sprintf("Set fill color of %s:", p.NodeID), resultOrNull(result))
}

// move_node

type moveParams struct {
	NodeID string  `json:"nodeId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type moveNode struct{}

func (t *moveNode) Name() string { return "move_node" }

func (t *moveNode) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Move a node to a new position",
		InputSchema: objectSchema(map[string]any{
			"nodeId": stringProp("The ID of the node to move"),
			"x":      numberProp("New X position"),
			"y":      numberProp("New Y position"),
		}, "nodeId", "x", "y"),
	}
}

func (t *moveNode) Validate(args json.RawMessage) (any, error) {
	return decode[moveParams](t.Describe().InputSchema, args)
}

func (t *moveNode) BuildCommand(params any) (string, any) {
	return "move_node", params.(*moveParams)
}

func (t *moveNode) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*moveParams)
	return mcp.RawJSONResult(fmt.Sprintf("Moved %s to (%g, %g):", p.NodeID, p.X, p.Y), resultOrNull(result))
}

// resize_node

type resizeParams struct {
	NodeID string  `json:"nodeId"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type resizeNode struct{}

func (t *resizeNode) Name() string { return "resize_node" }

func (t *resizeNode) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Resize a node",
		InputSchema: objectSchema(map[string]any{
			"nodeId": stringProp("The ID of the node to resize"),
			"width":  numberProp("New width"),
			"height": numberProp("New height"),
		}, "nodeId", "width", "height"),
	}
}

func (t *resizeNode) Validate(args json.RawMessage) (any, error) {
	p, err := decode[resizeParams](t.Describe().InputSchema, args)
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

func (t *resizeNode) BuildCommand(params any) (string, any) {
	return "resize_node", params.(*resizeParams)
}

func (t *resizeNode) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*resizeParams)
	return mcp.RawJSONResult(fmt.Sprintf("Resized %s to %gx%g:", p.NodeID, p.Width, p.Height), resultOrNull(result))
}

// delete_node

type deleteParams struct {
	NodeID string `json:"nodeId"`
}

type deleteNode struct{}

func (t *deleteNode) Name() string { return "delete_node" }

func (t *deleteNode) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Delete a node from the canvas",
		InputSchema: objectSchema(map[string]any{
			"nodeId": stringProp("The ID of the node to delete"),
		}, "nodeId"),
	}
}

func (t *deleteNode) Validate(args json.RawMessage) (any, error) {
	return decode[deleteParams](t.Describe().InputSchema, args)
}

func (t *deleteNode) BuildCommand(params any) (string, any) {
	return "delete_node", params.(*deleteParams)
}

func (t *deleteNode) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*deleteParams)
	return mcp.RawJSONResult(fmt.Sprintf("Deleted %s:", p.NodeID), resultOrNull(result))
}

// set_text_content

type textContentParams struct {
	NodeID string `json:"nodeId"`
	Text   string `json:"text"`
}

type setTextContent struct{}

func (t *setTextContent) Name() string { return "set_text_content" }

func (t *setTextContent) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Replace the text content of a text node",
		InputSchema: objectSchema(map[string]any{
			"nodeId": stringProp("The ID of the text node"),
			"text":   stringProp("New text content"),
		}, "nodeId", "text"),
	}
}

func (t *setTextContent) Validate(args json.RawMessage) (any, error) {
	return decode[textContentParams](t.Describe().InputSchema, args)
}

func (t *setTextContent) BuildCommand(params any) (string, any) {
	return "set_text_content", params.(*textContentParams)
}

func (t *setTextContent) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*textContentParams)
	return mcp.RawJSONResult(fmt.Sprintf("Updated text of %s:", p.NodeID), resultOrNull(result))
}
