package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Printer writes semantic output, styled when a provider is available and with symbol
// prefixes otherwise. It is safe for concurrent use.
type Printer struct {
	styleProvider StyleProvider
	writer        io.Writer
	mode          Mode
	forcePlain    bool
	silent        bool
	prefix        string

	mu sync.Mutex
}

// NewPrinter creates a Printer writing to os.Stdout.
func NewPrinter(options ...Option) *Printer {
	p := &Printer{
		writer: os.Stdout,
		mode:   ModeAuto,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Print writes text as is.
func (p *Printer) Print(text string) {
	p.output(SemanticPlain, text, false)
}

// Printf writes formatted text as is.
func (p *Printer) Printf(format string, args ...interface{}) {
	p.output(SemanticPlain, fmt.Sprintf(format, args...), false)
}

// Println writes text followed by a newline.
func (p *Printer) Println(text string) {
	p.output(SemanticPlain, text, true)
}

// Info writes an informational line.
func (p *Printer) Info(text string) {
	p.output(SemanticInfo, text, true)
}

// Success writes a success line.
func (p *Printer) Success(text string) {
	p.output(SemanticSuccess, text, true)
}

// Warning writes a warning line.
func (p *Printer) Warning(text string) {
	p.output(SemanticWarning, text, true)
}

// Error writes an error line.
func (p *Printer) Error(text string) {
	p.output(SemanticError, text, true)
}

// Bold writes emphasized text without a newline.
func (p *Printer) Bold(text string) {
	p.output(SemanticBold, text, false)
}

func (p *Printer) output(semantic SemanticType, text string, addNewline bool) {
	if p.silent {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var style TextStyle
	if p.stylable() && p.mode != ModePlain {
		style = p.styleProvider.GetStyle(string(semantic))
	} else {
		style = NewPlainStyleProvider().GetStyle(string(semantic))
	}

	result := text
	if semantic != SemanticPlain {
		result = style.Render(text)
	}
	if addNewline && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	if p.prefix != "" {
		result = p.prefix + result
	}

	_, _ = fmt.Fprint(p.writer, result)
}

// SetWriter changes the destination.
func (p *Printer) SetWriter(writer io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = writer
}

// SetStyleProvider changes the provider. nil disables styling.
func (p *Printer) SetStyleProvider(provider StyleProvider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.styleProvider = provider
}

// IsStylable reports whether styles are applied.
func (p *Printer) IsStylable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stylable()
}

func (p *Printer) stylable() bool {
	return !p.forcePlain && p.styleProvider != nil && p.styleProvider.IsAvailable()
}
