// Package stream groups streamed server events into transcript units.
//
// The Aggregator is not safe for concurrent use. Every method must be called from the
// same serial executor that runs the connection callbacks.
package stream

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"mcpchat/internal/logger"
	"mcpchat/internal/protocol"
	"mcpchat/pkg/chattypes"
)

// Formatter turns the accumulated source of a unit into display markup.
type Formatter interface {
	Format(kind chattypes.UnitKind, source string) string
}

// Renderer receives every unit creation and update, plus the awaiting-response indicator.
type Renderer interface {
	Render(unit chattypes.Unit, markup string)
	Pending(waiting bool)
}

// Options configures an Aggregator. Formatter and Renderer are required.
type Options struct {
	Formatter     Formatter
	Renderer      Renderer
	ShowReasoning func() bool
	Now           func() time.Time
	NewID         func() string
}

// Aggregator owns the active answer, the session counter and the reasoning context.
type Aggregator struct {
	formatter     Formatter
	renderer      Renderer
	showReasoning func() bool
	now           func() time.Time
	newID         func() string
	log           *log.Logger

	answer *chattypes.Unit

	sessionCounter int
	fallbackID     string
	lastContextID  string
	stepCounter    int
	openStep       *chattypes.Unit

	unitSeq int
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	a := &Aggregator{
		formatter:     opts.Formatter,
		renderer:      opts.Renderer,
		showReasoning: opts.ShowReasoning,
		now:           opts.Now,
		newID:         opts.NewID,
		log:           logger.NewStyledLogger("Stream"),
	}
	if a.showReasoning == nil {
		a.showReasoning = func() bool { return true }
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	return a
}

// Dispatch routes a decoded event to its handler. History events are not units and are
// left to the caller.
func (a *Aggregator) Dispatch(ev chattypes.Event) {
	switch ev.Type {
	case chattypes.EventContent:
		a.Content(ev.Content)
	case chattypes.EventReasoning:
		a.Reasoning(ev.Content, ev.NewStep)
	case chattypes.EventToolResult:
		a.ToolResult(ev)
	case chattypes.EventSystem:
		a.System(ev.Content)
	case chattypes.EventError:
		a.Error(ev)
	default:
		a.log.Debug("Ignoring event", "type", ev.Type)
	}
}

// Content appends an answer chunk. The first chunk of a turn creates the answer unit;
// later chunks re-render the whole accumulated text.
func (a *Aggregator) Content(text string) {
	a.renderer.Pending(false)

	if a.answer == nil {
		a.answer = &chattypes.Unit{
			ID:     "ai-" + a.newID(),
			Kind:   chattypes.UnitAnswer,
			Label:  "Assistant",
			Time:   a.now(),
			Source: text,
		}
		a.log.Debug("Answer started", "unit", a.answer.ID)
	} else {
		a.answer.Source += text
	}

	a.render(a.answer)
}

// Reasoning appends a reasoning chunk to the open step, opening a new step when newStep
// is set or none is open. Chunks are dropped while reasoning display is off.
func (a *Aggregator) Reasoning(text string, newStep bool) {
	if !a.showReasoning() {
		return
	}
	a.renderer.Pending(false)

	contextID := a.contextID()
	if contextID != a.lastContextID {
		a.stepCounter = 0
		a.openStep = nil
		a.lastContextID = contextID
	}

	if newStep || a.openStep == nil {
		a.stepCounter++
		a.openStep = &chattypes.Unit{
			ID:    a.unitID("thinking"),
			Kind:  chattypes.UnitReasoning,
			Label: fmt.Sprintf("Reasoning #%d", a.stepCounter),
			Step:  a.stepCounter,
			Time:  a.now(),
		}
		a.log.Debug("Reasoning step opened", "unit", a.openStep.ID, "context", contextID, "step", a.stepCounter)
	}

	breakAfter := ShouldBreakAfter(a.openStep.Source, strings.TrimSpace(text))
	a.openStep.Source += text
	if breakAfter {
		a.openStep.Source += "\n"
	}

	a.render(a.openStep)
}

// ShouldBreakAfter reports whether a line break follows an incoming reasoning chunk:
// the step already has text and the trimmed chunk ends a sentence.
func ShouldBreakAfter(existing, incomingTrimmed string) bool {
	if existing == "" || incomingTrimmed == "" {
		return false
	}
	return strings.ContainsAny(lastRune(incomingTrimmed), "。！？.!?")
}

func lastRune(s string) string {
	r := []rune(s)
	return string(r[len(r)-1])
}

// ToolResult adds an independent unit for a finished tool call and raises the
// awaiting-response indicator, since the assistant normally continues afterwards.
func (a *Aggregator) ToolResult(ev chattypes.Event) {
	args, err := protocol.FormatToolArgs(ev.ToolArgs)
	if err != nil {
		a.log.Warn("Tool arguments shown unformatted", "tool", ev.ToolName, "error", err)
	}

	name := ev.ToolName
	if name == "" {
		name = "tool"
	}

	a.renderer.Pending(false)
	a.render(&chattypes.Unit{
		ID:     a.unitID("tool"),
		Kind:   chattypes.UnitTool,
		Label:  name,
		Time:   a.now(),
		Source: fmt.Sprintf("Arguments: %s\n\nResult: %s", args, protocol.FormatToolResult(ev.ToolResult)),
	})
	a.renderer.Pending(true)
}

// System adds an independent notice unit.
func (a *Aggregator) System(text string) {
	a.renderer.Pending(false)
	a.render(&chattypes.Unit{
		ID:     a.unitID("system"),
		Kind:   chattypes.UnitSystem,
		Label:  "System",
		Time:   a.now(),
		Source: text,
	})
}

// Error shows a backend error as a notice.
func (a *Aggregator) Error(ev chattypes.Event) {
	a.log.Warn("Server reported an error", "error", ev.Message)
	a.System(protocol.FormatError(ev))
}

// User adds the unit for a message the user submitted.
func (a *Aggregator) User(text string) {
	a.render(&chattypes.Unit{
		ID:     a.unitID("user"),
		Kind:   chattypes.UnitUser,
		Label:  "You",
		Time:   a.now(),
		Source: text,
	})
}

// FinalizeReasoningSequence closes the open reasoning step. The step counter is kept.
func (a *Aggregator) FinalizeReasoningSequence() {
	a.openStep = nil
}

// BeginTurn starts a new user turn: the active answer is retired, the session counter
// advances and the reasoning sequence is finalized.
func (a *Aggregator) BeginTurn() {
	a.answer = nil
	a.sessionCounter++
	a.FinalizeReasoningSequence()
}

// Reset retires the active answer without starting a session.
func (a *Aggregator) Reset() {
	a.answer = nil
	a.FinalizeReasoningSequence()
}

// ActiveAnswerID returns the id of the answer being streamed, or "".
func (a *Aggregator) ActiveAnswerID() string {
	if a.answer == nil {
		return ""
	}
	return a.answer.ID
}

// SessionID returns the current session identifier, or "" before the first turn.
func (a *Aggregator) SessionID() string {
	if a.sessionCounter == 0 {
		return ""
	}
	return fmt.Sprintf("session-%d", a.sessionCounter)
}

// StepCounter returns the number of reasoning steps opened in the current context.
func (a *Aggregator) StepCounter() int {
	return a.stepCounter
}

// HasOpenStep reports whether reasoning chunks currently extend an existing step.
func (a *Aggregator) HasOpenStep() bool {
	return a.openStep != nil
}

// contextID prefers the active answer, then the session. Before any of them exists a
// fallback id is minted once and reused.
func (a *Aggregator) contextID() string {
	if a.answer != nil {
		return a.answer.ID
	}
	if id := a.SessionID(); id != "" {
		return id
	}
	if a.fallbackID == "" {
		a.fallbackID = fmt.Sprintf("fallback-%d", a.now().UnixMilli())
	}
	return a.fallbackID
}

func (a *Aggregator) unitID(prefix string) string {
	a.unitSeq++
	return fmt.Sprintf("%s-%d", prefix, a.unitSeq)
}

func (a *Aggregator) render(unit *chattypes.Unit) {
	a.renderer.Render(*unit, a.formatter.Format(unit.Kind, unit.Source))
}
