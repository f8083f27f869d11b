// errors.go — RPC error codes and the typed error carried to the protocol
// boundary. Standard JSON-RPC codes plus the bridge-specific codes for the
// plugin link, which assistants need to tell apart from input errors.
package mcp

import "fmt"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Bridge-specific error codes, in the implementation-defined range.
const (
	// CodeNoPluginConnection: no plugin is connected for the requested file.
	// The single most common operator-facing failure ("plugin not running").
	CodeNoPluginConnection = -32010
	// CodePluginTimeout: the plugin did not reply within the deadline. Retryable.
	CodePluginTimeout = -32011
	// CodePluginDisconnected: the plugin dropped mid-request. Retryable once
	// the plugin reconnects.
	CodePluginDisconnected = -32012
)

// Error is a JSON-RPC 2.0 error object. It doubles as a Go error so the
// router can return it through normal error plumbing.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Errorf constructs an Error with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithData attaches structured diagnostic data to the error.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}

// Retryable reports whether the assistant may retry the request unchanged.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodePluginTimeout, CodePluginDisconnected, CodeNoPluginConnection:
		return true
	default:
		return false
	}
}
