// Package render turns accumulated unit text into terminal markup.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"

	"mcpchat/internal/logger"
	"mcpchat/internal/protocol"
	"mcpchat/pkg/chattypes"
)

// Formatter renders answers and notices as markdown through glamour, and everything else
// as wrapped plain text. Output depends only on the kind and the accumulated source.
type Formatter struct {
	style    string
	wrap     int
	renderer *glamour.TermRenderer
}

// NewFormatter creates a Formatter for a glamour style ("dark", "light", "notty", ...).
func NewFormatter(style string, wrap int) (*Formatter, error) {
	f := &Formatter{style: style, wrap: wrap}
	if err := f.rebuild(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Formatter) rebuild() error {
	if f.wrap <= 0 {
		return fmt.Errorf("word wrap width must be positive, got %d", f.wrap)
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(f.style),
		glamour.WithWordWrap(f.wrap),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer with style '%s': %w", f.style, err)
	}
	f.renderer = renderer
	return nil
}

// Style returns the glamour style in use.
func (f *Formatter) Style() string {
	return f.style
}

// SetStyle switches the glamour style. On failure the previous style is kept.
func (f *Formatter) SetStyle(style string) error {
	prev := f.style
	f.style = style
	if err := f.rebuild(); err != nil {
		f.style = prev
		return err
	}
	logger.Debug("Markdown style updated", "style", style)
	return nil
}

// SetWordWrap changes the wrap width. On failure the previous width is kept.
func (f *Formatter) SetWordWrap(width int) error {
	if width == f.wrap {
		return nil
	}
	prev := f.wrap
	f.wrap = width
	if err := f.rebuild(); err != nil {
		f.wrap = prev
		return err
	}
	return nil
}

// Format implements stream.Formatter.
func (f *Formatter) Format(kind chattypes.UnitKind, source string) string {
	switch kind {
	case chattypes.UnitAnswer:
		return f.markdown(SubstituteMath(AnnotateCodeBlocks(source)), source)
	case chattypes.UnitSystem:
		return f.markdown(source, source)
	default:
		return ansi.Wrap(protocol.Sanitize(source), f.wrap, "")
	}
}

// Markdown renders arbitrary markdown, for help text and client notices.
func (f *Formatter) Markdown(source string) string {
	return f.markdown(source, source)
}

func (f *Formatter) markdown(md, fallback string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := f.renderer.Render(md)
	if err != nil {
		logger.Debug("Markdown rendering failed, showing plain text", "error", err)
		return ansi.Wrap(fallback, f.wrap, "")
	}
	return strings.Trim(out, "\n")
}
