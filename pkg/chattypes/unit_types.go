package chattypes

import "time"

// UnitKind identifies what a transcript unit represents.
type UnitKind string

const (
	// UnitUser is a message typed by the user.
	UnitUser UnitKind = "user"
	// UnitAnswer is the growing assistant reply of one turn.
	UnitAnswer UnitKind = "answer"
	// UnitReasoning is one reasoning step of the assistant.
	UnitReasoning UnitKind = "reasoning"
	// UnitTool is the result of one tool invocation.
	UnitTool UnitKind = "tool"
	// UnitSystem is a notice from the backend or from the client itself.
	UnitSystem UnitKind = "system"
)

// Unit is one discrete renderable block in the transcript.
// Source always holds the raw accumulated text; markup is derived from it.
type Unit struct {
	ID     string
	Kind   UnitKind
	Label  string
	Step   int
	Time   time.Time
	Source string
}

// IsStreaming reports whether units of this kind grow while chunks arrive.
func (k UnitKind) IsStreaming() bool {
	return k == UnitAnswer || k == UnitReasoning
}
