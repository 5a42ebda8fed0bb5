package phoenix

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reserved event names of the Phoenix channel protocol.
const (
	EventJoin      = "phx_join"
	EventLeave     = "phx_leave"
	EventReply     = "phx_reply"
	EventError     = "phx_error"
	EventClose     = "phx_close"
	EventHeartbeat = "heartbeat"
	// EventHook is the LiveView event carrying client hook pushes.
	EventHook = "event"

	heartbeatTopic = "phoenix"
)

// Frame is one V2 serializer message: [join_ref, ref, topic, event, payload].
// Empty refs encode as null.
type Frame struct {
	JoinRef string
	Ref     string
	Topic   string
	Event   string
	Payload json.RawMessage
}

// MarshalJSON encodes the array form.
func (f Frame) MarshalJSON() ([]byte, error) {
	payload := f.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return json.Marshal([]any{nullable(f.JoinRef), nullable(f.Ref), f.Topic, f.Event, payload})
}

// UnmarshalJSON decodes the array form.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("phoenix: decode frame: %w", err)
	}
	if len(parts) != 5 {
		return fmt.Errorf("phoenix: decode frame: expected 5 elements, got %d", len(parts))
	}
	var joinRef, ref *string
	if err := json.Unmarshal(parts[0], &joinRef); err != nil {
		return fmt.Errorf("phoenix: decode join ref: %w", err)
	}
	if err := json.Unmarshal(parts[1], &ref); err != nil {
		return fmt.Errorf("phoenix: decode ref: %w", err)
	}
	if err := json.Unmarshal(parts[2], &f.Topic); err != nil {
		return fmt.Errorf("phoenix: decode topic: %w", err)
	}
	if err := json.Unmarshal(parts[3], &f.Event); err != nil {
		return fmt.Errorf("phoenix: decode event: %w", err)
	}
	f.JoinRef, f.Ref = deref(joinRef), deref(ref)
	f.Payload = append(json.RawMessage(nil), bytes.TrimSpace(parts[4])...)
	return nil
}

// HookPayload is the LiveView envelope for a pushEvent from a hook.
type HookPayload struct {
	Type  string         `json:"type"`
	Event string         `json:"event"`
	Value map[string]any `json:"value"`
}

// Reply is the payload of a phx_reply frame.
type Reply struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// OK reports a successful reply.
func (r Reply) OK() bool { return r.Status == "ok" }

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
