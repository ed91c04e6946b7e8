package chattypes

import "encoding/json"

// EventType is the "type" discriminator of a server frame.
type EventType string

const (
	// EventContent carries a chunk of the assistant answer.
	EventContent EventType = "content"
	// EventReasoning carries a chunk of assistant reasoning.
	EventReasoning EventType = "reasoning"
	// EventToolResult reports a finished tool call.
	EventToolResult EventType = "tool_result"
	// EventSystem is a backend notice rendered as markdown.
	EventSystem EventType = "system"
	// EventError is a structured backend error.
	EventError EventType = "error"
	// EventHistory replaces the conversation history; the backend sends an empty one on reset.
	EventHistory EventType = "history"
)

// Event is one decoded server frame. Only the fields relevant to Type are populated.
type Event struct {
	Type       EventType       `json:"type"`
	Content    string          `json:"content,omitempty"`
	NewStep    bool            `json:"newStep,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolArgs   json.RawMessage `json:"tool_args,omitempty"`
	ToolResult json.RawMessage `json:"tool_result,omitempty"`
	Message    string          `json:"message,omitempty"`
	Details    string          `json:"details,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}
