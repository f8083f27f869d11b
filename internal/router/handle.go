// handle.go — Full JSON-RPC method surface for one inbound session.
// Everything the assistant can send lands here; the transport only parses
// frames and writes whatever comes back.
package router

import (
	"context"
	"encoding/json"

	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
)

// ServerIdent identifies the server on initialize.
type ServerIdent struct {
	Name    string
	Version string
}

// HandleRequest dispatches one parsed inbound request. The bool reports
// whether a response should be written; notifications return false.
func (r *Router) HandleRequest(ctx context.Context, fileID string, req mcp.Request, ident ServerIdent) (mcp.Response, bool) {
	if req.IsNotification() {
		// notifications/initialized and friends: acknowledge by silence.
		return mcp.Response{}, false
	}
	if req.HasInvalidID() {
		return mcp.NewErrorResponse(nil, mcp.Errorf(mcp.CodeInvalidRequest, "request id must be a string or number")), true
	}
	if req.Method == "" {
		return mcp.NewErrorResponse(req.ID, mcp.Errorf(mcp.CodeInvalidRequest, "missing method")), true
	}

	switch req.Method {
	case "initialize":
		return mcp.NewResponse(req.ID, mcp.SafeMarshal(mcp.InitializeResult{
			ProtocolVersion: mcp.ProtocolVersion,
			ServerInfo:      mcp.ServerInfo{Name: ident.Name, Version: ident.Version},
			Capabilities:    mcp.Capabilities{},
			Instructions:    "Tools operate on the canvas file this session is bound to. A plugin must be running in that file.",
		}, `{}`)), true

	case "ping":
		return mcp.NewResponse(req.ID, json.RawMessage(`{}`)), true

	case "tools/list":
		return mcp.NewResponse(req.ID, mcp.SafeMarshal(mcp.ToolsListResult{
			Tools: r.catalog.Describe(),
		}, `{"tools":[]}`)), true

	case "tools/call":
		var call mcp.CallParams
		if err := json.Unmarshal(req.Params, &call); err != nil || call.Name == "" {
			return mcp.NewErrorResponse(req.ID, mcp.Errorf(mcp.CodeInvalidParams, "params must include a tool name")), true
		}
		result, invErr := r.Invoke(ctx, fileID, call.Name, call.Arguments)
		if invErr != nil {
			return mcp.NewErrorResponse(req.ID, invErr), true
		}
		return mcp.NewResponse(req.ID, result), true

	default:
		return mcp.NewErrorResponse(req.ID, mcp.Errorf(mcp.CodeMethodNotFound, "unknown method %q", req.Method)), true
	}
}
