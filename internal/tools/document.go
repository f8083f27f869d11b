// document.go — Read-only document inspection tools.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
)

// get_document_info

type getDocumentInfo struct{}

func (t *getDocumentInfo) Name() string { return "get_document_info" }

func (t *getDocumentInfo) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Get detailed information about the current canvas document",
		InputSchema: objectSchema(map[string]any{}),
	}
}

func (t *getDocumentInfo) Validate(args json.RawMessage) (any, error) {
	return decode[struct{}](t.Describe().InputSchema, args)
}

func (t *getDocumentInfo) BuildCommand(any) (string, any) {
	return "get_document_info", struct{}{}
}

func (t *getDocumentInfo) FormatResult(result json.RawMessage, _ any) json.RawMessage {
	return mcp.RawJSONResult("Document info:", resultOrNull(result))
}

// get_selection

type getSelection struct{}

func (t *getSelection) Name() string { return "get_selection" }

func (t *getSelection) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Get information about the current selection in the canvas",
		InputSchema: objectSchema(map[string]any{}),
	}
}

func (t *getSelection) Validate(args json.RawMessage) (any, error) {
	return decode[struct{}](t.Describe().InputSchema, args)
}

func (t *getSelection) BuildCommand(any) (string, any) {
	return "get_selection", struct{}{}
}

func (t *getSelection) FormatResult(result json.RawMessage, _ any) json.RawMessage {
	return mcp.RawJSONResult("Current selection:", resultOrNull(result))
}

// get_node_info

type nodeInfoParams struct {
	NodeID string `json:"nodeId"`
}

type getNodeInfo struct{}

func (t *getNodeInfo) Name() string { return "get_node_info" }

func (t *getNodeInfo) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Get detailed information about a specific node",
		InputSchema: objectSchema(map[string]any{
			"nodeId": stringProp("The ID of the node to inspect"),
		}, "nodeId"),
	}
}

func (t *getNodeInfo) Validate(args json.RawMessage) (any, error) {
	return decode[nodeInfoParams](t.Describe().InputSchema, args)
}

func (t *getNodeInfo) BuildCommand(params any) (string, any) {
	return "get_node_info", params.(*nodeInfoParams)
}

func (t *getNodeInfo) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*nodeInfoParams)
	return mcp.RawJSONResult(fmt.Sprintf("Node %s:", p.NodeID), resultOrNull(result))
}
