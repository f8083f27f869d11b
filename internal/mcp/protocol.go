// protocol.go — JSON-RPC 2.0 framing for the assistant-facing protocol.
// Contains the request/response/error types exchanged with MCP clients.
package mcp

import (
	"bytes"
	"encoding/json"
)

// Version is the JSON-RPC protocol version echoed on every response.
const Version = "2.0"

// ProtocolVersion is the MCP protocol revision this server speaks.
const ProtocolVersion = "2024-11-05"

// Request represents an incoming JSON-RPC 2.0 request or notification.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	// any: the JSON-RPC 2.0 spec allows the ID to be a string, number, or null
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`

	idPresent bool
	idNull    bool
	idBadType bool
}

// UnmarshalJSON records whether the id field was present, explicitly null,
// or of an invalid type, so the server can tell notifications from requests
// and reject malformed ids per the JSON-RPC spec.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = Request{JSONRPC: p.JSONRPC, Method: p.Method, Params: p.Params}

	rawID, ok := fields["id"]
	r.idPresent = ok
	if !ok {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(rawID), []byte("null")) {
		r.idNull = true
		return nil
	}
	var id any
	if err := json.Unmarshal(rawID, &id); err != nil {
		return err
	}
	switch id.(type) {
	case string, float64:
		r.ID = id
	default:
		r.idBadType = true
	}
	return nil
}

// IsNotification reports whether the request carries no id and therefore
// must not be answered.
func (r Request) IsNotification() bool {
	return !r.idPresent
}

// HasInvalidID reports whether the id was explicitly null or of a type the
// JSON-RPC spec does not allow.
func (r Request) HasInvalidID() bool {
	return r.idNull || r.idBadType
}

// Response represents an outgoing JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResponse constructs a success response for the given request id.
func NewResponse(id any, result json.RawMessage) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse constructs an error response for the given request id.
func NewErrorResponse(id any, err *Error) Response {
	return Response{JSONRPC: Version, ID: id, Error: err}
}

// Encode serializes the response to a single frame.
func (r Response) Encode() []byte {
	return SafeMarshal(r, `{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"response marshal failed"}}`)
}

// CallParams is the params shape of a tools/call request.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}
