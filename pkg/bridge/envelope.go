package bridge

import "encoding/json"

// Envelope kinds.
const (
	KindRequest  = "request"
	KindResponse = "response"
	KindEvent    = "event"
)

// Envelope is the JSON frame exchanged with the host over the WebSocket.
// Requests carry ID, Command and Args; responses carry ID, OK and either
// Result or Error; events carry Event and Payload.
type Envelope struct {
	Kind    string          `json:"kind"`
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
