package shell

import (
	"bytes"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"mcpchat/internal/output"
	"mcpchat/internal/theme"
	"mcpchat/internal/transcript"
	"mcpchat/pkg/chattypes"
)

var stamp = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type viewFixture struct {
	buf        *bytes.Buffer
	status     *bytes.Buffer
	transcript *transcript.Transcript
	reasoning  bool
}

func newViewFixture() *viewFixture {
	f := &viewFixture{
		buf:        &bytes.Buffer{},
		status:     &bytes.Buffer{},
		transcript: transcript.New(),
		reasoning:  true,
	}
	plain := theme.NewServiceWithProfile(termenv.Ascii).Get(theme.Dark)
	printer := output.NewPrinter(output.WithWriter(f.status), output.TestMode())
	view := NewView(f.buf, printer, func() *theme.Theme { return plain }, func() bool { return f.reasoning })
	f.transcript.Observe(view.OnChange)
	return f
}

func unit(id string, kind chattypes.UnitKind, label, source string) chattypes.Unit {
	return chattypes.Unit{ID: id, Kind: kind, Label: label, Time: stamp, Source: source}
}

func TestViewStreamsOnlyAppendedText(t *testing.T) {
	f := newViewFixture()

	f.transcript.Render(unit("ai-1", chattypes.UnitAnswer, "Assistant", "Hel"), "ignored")
	f.transcript.Render(unit("ai-1", chattypes.UnitAnswer, "Assistant", "Hello, wor"), "ignored")
	f.transcript.Render(unit("ai-1", chattypes.UnitAnswer, "Assistant", "Hello, world"), "ignored")
	f.transcript.Pending(true)
	f.transcript.Pending(false)

	assert.Equal(t, "Assistant 09:30:00\nHello, world\n", f.buf.String())
}

func TestViewReprintsInterruptedStream(t *testing.T) {
	f := newViewFixture()

	f.transcript.Render(unit("ai-1", chattypes.UnitAnswer, "Assistant", "Part one"), "")
	f.transcript.Render(unit("tool-1", chattypes.UnitTool, "search", "Result"), "Arguments: {}\n\nResult: ok\n")
	f.transcript.Render(unit("ai-1", chattypes.UnitAnswer, "Assistant", "Part one, two"), "")

	assert.Equal(t,
		"Assistant 09:30:00\nPart one\n"+
			"search 09:30:00\nArguments: {}\n\nResult: ok\n"+
			"Assistant 09:30:00\nPart one, two",
		f.buf.String())
}

func TestViewRestartsWhenTextIsRewritten(t *testing.T) {
	f := newViewFixture()

	f.transcript.Render(unit("thinking-1", chattypes.UnitReasoning, "Reasoning #1", "abc"), "")
	f.transcript.Render(unit("thinking-1", chattypes.UnitReasoning, "Reasoning #1", "abX"), "")

	assert.Equal(t, "Reasoning #1 09:30:00\nabc\nabX", f.buf.String())
}

func TestViewSkipsUserEchoAndHiddenReasoning(t *testing.T) {
	f := newViewFixture()
	f.reasoning = false

	f.transcript.Render(unit("user-1", chattypes.UnitUser, "You", "hi"), "hi")
	f.transcript.Render(unit("thinking-1", chattypes.UnitReasoning, "Reasoning #1", "hmm"), "hmm")

	assert.Empty(t, f.buf.String())
}

func TestViewClearAndStatus(t *testing.T) {
	f := newViewFixture()
	view := NewView(f.buf, output.NewPrinter(output.WithWriter(f.status), output.TestMode()),
		func() *theme.Theme { return theme.NewServiceWithProfile(termenv.Ascii).Get("plain") },
		func() bool { return true })

	view.OnStatus(chattypes.StateConnecting)
	view.OnStatus(chattypes.StateOpen)
	view.OnStatus(chattypes.StateDisconnected)
	view.OnChange(transcript.Change{Kind: transcript.Cleared, Index: -1})

	assert.Equal(t, "ℹ Connecting...\n✓ Connected.\n⚠ Disconnected.\nℹ Conversation cleared.\n", f.status.String())
}

func TestViewSystemNoticeUsesMarkup(t *testing.T) {
	f := newViewFixture()

	f.transcript.Render(unit("system-1", chattypes.UnitSystem, "System", "**Error:** boom"), "Error: boom\n\n")

	assert.Equal(t, "System 09:30:00\nError: boom\n", f.buf.String())
}
