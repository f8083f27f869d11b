// frame.go — Plugin-facing wire protocol.
// Commands travel server→plugin, replies travel plugin→server, and plugins
// may also originate their own requests on the same connection.
package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// RequestIDPrefix marks command ids minted by this server. Replies echo the
// id, so the prefix lets us recognize our own requests coming back even from
// plugins that predate the explicit type tag.
const RequestIDPrefix = "req_"

// Frame type tags.
const (
	TypeCommand = "command"
	TypeReply   = "reply"
	TypeRequest = "request"
)

// Command is a request travelling toward the plugin.
type Command struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Reply is a plugin's answer to a Command. Exactly one of Result and Error
// is set. The id matches the originating Command.
type Reply struct {
	ID     string          `json:"id"`
	Type   string          `json:"type,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// Kind classifies an incoming plugin frame.
type Kind int

const (
	// KindInvalid: not JSON, or not recognizably a reply or request.
	KindInvalid Kind = iota
	// KindReply: a response to a command this server sent.
	KindReply
	// KindRequest: a fresh request originated by the plugin.
	KindRequest
)

// Classify determines what an incoming plugin frame is without a full
// unmarshal. The explicit type tag wins when present; the req_ id prefix is
// the fallback for plugins that do not send one yet.
func Classify(frame []byte) Kind {
	if !gjson.ValidBytes(frame) {
		return KindInvalid
	}
	switch gjson.GetBytes(frame, "type").String() {
	case TypeReply:
		return KindReply
	case TypeRequest, TypeCommand:
		return KindRequest
	}

	id := gjson.GetBytes(frame, "id").String()
	hasMethod := gjson.GetBytes(frame, "method").Exists()
	if strings.HasPrefix(id, RequestIDPrefix) && !hasMethod {
		return KindReply
	}
	if hasMethod {
		return KindRequest
	}
	return KindInvalid
}

// NewCommand builds a Command with marshaled params.
func NewCommand(id, method string, params any) (Command, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Command{}, fmt.Errorf("marshal params for %s: %w", method, err)
	}
	return Command{ID: id, Type: TypeCommand, Method: method, Params: raw}, nil
}

// Encode serializes the command to a single frame.
func (c Command) Encode() ([]byte, error) {
	frame, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode command %s: %w", c.ID, err)
	}
	return frame, nil
}

// DecodeReply parses a frame already classified as KindReply.
func DecodeReply(frame []byte) (Reply, error) {
	var r Reply
	if err := json.Unmarshal(frame, &r); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	if r.ID == "" {
		return Reply{}, fmt.Errorf("decode reply: missing id")
	}
	return r, nil
}
