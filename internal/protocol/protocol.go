// Package protocol decodes server frames into events and formats their payloads for display.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"mcpchat/pkg/chattypes"
)

// Decode parses one inbound text frame.
//
// A frame that is not JSON yields a system event carrying the raw text together with a
// *chattypes.MalformedMessageError, so callers can both log the problem and show the text.
// JSON that is not a known event yields a system event with its JSON text and no error.
func Decode(data []byte) (chattypes.Event, error) {
	if !json.Valid(data) {
		return systemEvent(string(data)), &chattypes.MalformedMessageError{
			Payload: string(data),
			Err:     fmt.Errorf("invalid JSON"),
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil && s != "" {
			return systemEvent(s), nil
		}
		return systemEvent(string(trimmed)), nil
	}

	var wire wireEvent
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return systemEvent(string(data)), &chattypes.MalformedMessageError{Payload: string(data), Err: err}
	}
	ev := wire.Event
	ev.NewStep = truthy(wire.NewStep)

	switch ev.Type {
	case chattypes.EventContent, chattypes.EventReasoning, chattypes.EventSystem:
		ev.Content = Sanitize(ev.Content)
	case chattypes.EventToolResult:
		ev.ToolName = Sanitize(ev.ToolName)
	case chattypes.EventError:
		ev.Message = Sanitize(ev.Message)
		ev.Details = Sanitize(ev.Details)
	case chattypes.EventHistory:
	default:
		return systemEvent(string(trimmed)), nil
	}
	return ev, nil
}

// wireEvent accepts any JSON value for newStep; its shallower field hides Event.NewStep.
type wireEvent struct {
	chattypes.Event
	NewStep json.RawMessage `json:"newStep,omitempty"`
}

// truthy treats false, null, 0 and "" as false and every other value as true.
func truthy(raw json.RawMessage) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

func systemEvent(text string) chattypes.Event {
	return chattypes.Event{Type: chattypes.EventSystem, Content: Sanitize(text)}
}

// IsEmptyHistory reports whether a history event carries no messages, which the backend
// sends after a conversation reset.
func IsEmptyHistory(ev chattypes.Event) bool {
	if ev.Type != chattypes.EventHistory {
		return false
	}
	data := bytes.TrimSpace(ev.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return false
	}
	return len(items) == 0
}

// FormatToolArgs renders tool arguments for display. Objects and arrays are indented JSON,
// a JSON string is shown literally and other scalars as their JSON text. When indenting
// fails the raw text is returned along with a *chattypes.SerializationError.
func FormatToolArgs(raw json.RawMessage) (string, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", nil
	}

	switch text[0] {
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(text), "", "  "); err != nil {
			return Sanitize(text), &chattypes.SerializationError{Err: err}
		}
		return Sanitize(buf.String()), nil
	case '"':
		var s string
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return Sanitize(text), &chattypes.SerializationError{Err: err}
		}
		return Sanitize(s), nil
	default:
		return Sanitize(text), nil
	}
}

// FormatToolResult renders a tool result: strings literally, anything else as JSON text.
func FormatToolResult(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			return Sanitize(s)
		}
	}
	return Sanitize(text)
}

// FormatError renders an error event as notice text.
func FormatError(ev chattypes.Event) string {
	msg := ev.Message
	if msg == "" {
		msg = "Unknown server error"
	}
	if ev.Details == "" {
		return "**Error:** " + msg
	}
	return fmt.Sprintf("**Error:** %s\n\n%s", msg, ev.Details)
}

// Sanitize strips terminal escape sequences from server-provided text.
func Sanitize(s string) string {
	if !strings.ContainsRune(s, '\x1b') && !strings.ContainsRune(s, '\x9b') {
		return s
	}
	return ansi.Strip(s)
}
