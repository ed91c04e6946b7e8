// Package output prints status lines and notices for the line-oriented shell.
// Styling is injected through StyleProvider so the package does not depend on themes.
package output

// StyleProvider supplies styles for semantic output types. theme.Theme implements it.
type StyleProvider interface {
	// GetStyle returns the style of a semantic type ("info", "success", ...).
	GetStyle(semantic string) TextStyle

	// IsAvailable reports whether styles should be applied at all.
	IsAvailable() bool

	// GetThemeType returns the markdown style that matches the provider.
	GetThemeType() string
}

// TextStyle renders text with styling. lipgloss.Style implements it.
type TextStyle interface {
	Render(text string) string
}

// Mode selects how the printer renders.
type Mode int

const (
	// ModeAuto styles output when a provider is available.
	ModeAuto Mode = iota
	// ModeStyled always uses the provider when there is one.
	ModeStyled
	// ModePlain uses symbol prefixes instead of styles.
	ModePlain
)

// SemanticType is the meaning of a piece of output.
type SemanticType string

const (
	// SemanticPlain is text without semantic meaning.
	SemanticPlain SemanticType = "plain"
	// SemanticInfo is informational text.
	SemanticInfo SemanticType = "info"
	// SemanticSuccess reports something that worked, e.g. a connection opening.
	SemanticSuccess SemanticType = "success"
	// SemanticWarning reports a recoverable problem, e.g. a lost connection.
	SemanticWarning SemanticType = "warning"
	// SemanticError reports a failure.
	SemanticError SemanticType = "error"
	// SemanticBold is emphasized text.
	SemanticBold SemanticType = "bold"
)
