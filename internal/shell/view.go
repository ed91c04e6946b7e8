package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"mcpchat/internal/output"
	"mcpchat/internal/theme"
	"mcpchat/internal/transcript"
	"mcpchat/pkg/chattypes"
)

// View prints transcript changes as a scrolling log. Streaming units are printed
// incrementally: each update only writes the text appended since the previous one.
type View struct {
	w             io.Writer
	printer       *output.Printer
	theme         func() *theme.Theme
	showReasoning func() bool
	dmp           *diffmatchpatch.DiffMatchPatch

	// printed is the raw text already written for each streaming unit.
	printed map[string]string
	// cursor is the streaming unit whose text ends the output, if any.
	cursor  string
	midLine bool
}

// NewView creates a view writing units to w and status lines to printer.
func NewView(w io.Writer, printer *output.Printer, th func() *theme.Theme, showReasoning func() bool) *View {
	return &View{
		w:             w,
		printer:       printer,
		theme:         th,
		showReasoning: showReasoning,
		dmp:           diffmatchpatch.New(),
		printed:       make(map[string]string),
	}
}

// OnChange implements the transcript observer.
func (v *View) OnChange(c transcript.Change) {
	switch c.Kind {
	case transcript.Inserted, transcript.Updated:
		v.show(c.Entry)
	case transcript.Cleared:
		v.endLine()
		v.printed = make(map[string]string)
		v.cursor = ""
		v.printer.Info("Conversation cleared.")
	case transcript.PendingChanged:
		if !c.Pending {
			v.endLine()
			v.cursor = ""
		}
	case transcript.Restyled:
	}
}

// OnStatus prints connection state changes.
func (v *View) OnStatus(state chattypes.ConnState) {
	v.endLine()
	v.cursor = ""
	switch state {
	case chattypes.StateOpen:
		v.printer.Success("Connected.")
	case chattypes.StateConnecting:
		v.printer.Info("Connecting...")
	case chattypes.StateDisconnected:
		v.printer.Warning("Disconnected.")
	}
}

func (v *View) show(entry transcript.Entry) {
	unit := entry.Unit
	switch unit.Kind {
	case chattypes.UnitUser:
		// readline already echoed the line
		return
	case chattypes.UnitReasoning:
		if !v.showReasoning() {
			return
		}
	}

	if !unit.Kind.IsStreaming() {
		v.endLine()
		v.cursor = ""
		v.header(unit)
		v.write(strings.TrimRight(entry.Markup, "\n") + "\n")
		return
	}

	previous, seen := v.printed[unit.ID]
	if !seen || v.cursor != unit.ID {
		v.endLine()
		v.header(unit)
		previous = ""
	}
	v.cursor = unit.ID
	v.printed[unit.ID] = unit.Source
	v.write(v.appended(previous, unit.Source))
}

// appended returns the part of current that follows what was printed. When current no
// longer extends previous the whole text is printed again on a new line.
func (v *View) appended(previous, current string) string {
	common := v.dmp.DiffCommonPrefix(previous, current)
	runes := []rune(current)
	if common < len([]rune(previous)) {
		return "\n" + current
	}
	return string(runes[common:])
}

func (v *View) header(unit chattypes.Unit) {
	th := v.theme()
	label := th.UnitStyle(unit.Kind).Render(unit.Label)
	stamp := th.Timestamp.Render(unit.Time.Format("15:04:05"))
	v.write(fmt.Sprintf("%s %s\n", label, stamp))
}

func (v *View) write(text string) {
	if text == "" {
		return
	}
	_, _ = io.WriteString(v.w, text)
	v.midLine = !strings.HasSuffix(text, "\n")
}

func (v *View) endLine() {
	if v.midLine {
		v.write("\n")
	}
}
