// export.go — Node export tooling. Exports round-trip image bytes through
// the plugin, so this is the slowest tool in the catalog; the router grants
// it a longer deadline (see router.timeoutFor).
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
)

type exportParams struct {
	NodeID string  `json:"nodeId"`
	Format string  `json:"format,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

type exportNodeAsImage struct{}

func (t *exportNodeAsImage) Name() string { return "export_node_as_image" }

func (t *exportNodeAsImage) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        t.Name(),
		Description: "Export a node as an image (PNG, JPG, SVG, or PDF)",
		InputSchema: objectSchema(map[string]any{
			"nodeId": stringProp("The ID of the node to export"),
			"format": map[string]any{
				"type":        "string",
				"enum":        []string{"PNG", "JPG", "SVG", "PDF"},
				"description": "Export format (default PNG)",
			},
			"scale": numberProp("Export scale (default 1)"),
		}, "nodeId"),
	}
}

func (t *exportNodeAsImage) Validate(args json.RawMessage) (any, error) {
	p, err := decode[exportParams](t.Describe().InputSchema, args)
	if err != nil {
		return nil, err
	}
	if p.Format == "" {
		p.Format = "PNG"
	}
	if p.Scale == 0 {
		p.Scale = 1
	}
	if p.Scale < 0 {
		return nil, &ValidationError{Field: "scale", Reason: "must be greater than 0"}
	}
	return p, nil
}

func (t *exportNodeAsImage) BuildCommand(params any) (string, any) {
	return "export_node_as_image", params.(*exportParams)
}

func (t *exportNodeAsImage) FormatResult(result json.RawMessage, params any) json.RawMessage {
	p := params.(*exportParams)
	var payload struct {
		ImageData string `json:"imageData"`
		MimeType  string `json:"mimeType"`
	}
	if err := json.Unmarshal(result, &payload); err == nil && payload.ImageData != "" {
		summary := fmt.Sprintf("Exported %s as %s (%d base64 bytes, %s)",
			p.NodeID, p.Format, len(payload.ImageData), payload.MimeType)
		return mcp.RawJSONResult(summary, result)
	}
	return mcp.RawJSONResult(fmt.Sprintf("Exported %s:", p.NodeID), resultOrNull(result))
}
