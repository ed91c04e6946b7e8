// Package theme provides the light and dark color themes of the transcript and status bar.
package theme

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"mcpchat/internal/logger"
	"mcpchat/internal/output"
	"mcpchat/pkg/chattypes"
)

//go:embed themes/*.yaml
var themeFS embed.FS

// Theme names.
const (
	Light = "light"
	Dark  = "dark"
	Plain = "plain"
)

var _ output.StyleProvider = (*Theme)(nil)

// Theme holds the lipgloss styles of one theme. It implements output.StyleProvider.
type Theme struct {
	Name    string
	Glamour string

	User         lipgloss.Style
	Answer       lipgloss.Style
	Reasoning    lipgloss.Style
	Tool         lipgloss.Style
	System       lipgloss.Style
	Timestamp    lipgloss.Style
	Connected    lipgloss.Style
	Disconnected lipgloss.Style
	Info         lipgloss.Style
	Success      lipgloss.Style
	Warning      lipgloss.Style
	Error        lipgloss.Style
	Body         lipgloss.Style
}

// UnitStyle returns the header style of a unit kind.
func (t *Theme) UnitStyle(kind chattypes.UnitKind) lipgloss.Style {
	switch kind {
	case chattypes.UnitUser:
		return t.User
	case chattypes.UnitAnswer:
		return t.Answer
	case chattypes.UnitReasoning:
		return t.Reasoning
	case chattypes.UnitTool:
		return t.Tool
	default:
		return t.System
	}
}

// GetStyle implements output.StyleProvider.
func (t *Theme) GetStyle(semantic string) output.TextStyle {
	switch output.SemanticType(semantic) {
	case output.SemanticInfo:
		return textStyle{t.Info}
	case output.SemanticSuccess:
		return textStyle{t.Success}
	case output.SemanticWarning:
		return textStyle{t.Warning}
	case output.SemanticError:
		return textStyle{t.Error}
	case output.SemanticBold:
		return textStyle{lipgloss.NewStyle().Bold(true)}
	default:
		return textStyle{t.Body}
	}
}

// textStyle adapts the variadic lipgloss Render to output.TextStyle.
type textStyle struct {
	style lipgloss.Style
}

func (s textStyle) Render(text string) string {
	return s.style.Render(text)
}

// IsAvailable implements output.StyleProvider. The plain theme reports false so printers
// fall back to their symbol prefixes.
func (t *Theme) IsAvailable() bool {
	return t.Name != Plain
}

// GetThemeType implements output.StyleProvider.
func (t *Theme) GetThemeType() string {
	return t.Glamour
}

// Service loads the embedded themes and picks one for the current preferences.
type Service struct {
	themes  map[string]*Theme
	profile termenv.Profile
}

// NewService loads the themes for the color profile of the environment.
func NewService() *Service {
	return NewServiceWithProfile(termenv.EnvColorProfile())
}

// NewServiceWithProfile loads the themes for an explicit color profile. An Ascii profile
// always yields the plain theme.
func NewServiceWithProfile(profile termenv.Profile) *Service {
	s := &Service{
		themes:  map[string]*Theme{Plain: plainTheme()},
		profile: profile,
	}
	for _, name := range []string{Light, Dark} {
		theme, err := loadTheme(name)
		if err != nil {
			logger.Error("Failed to load theme", "theme", name, "error", err)
			fallback := plainTheme()
			fallback.Name = name
			fallback.Glamour = name
			s.themes[name] = fallback
			continue
		}
		s.themes[name] = theme
	}
	return s
}

// ForDarkMode returns the theme selected by the dark mode preference.
func (s *Service) ForDarkMode(dark bool) *Theme {
	if dark {
		return s.Get(Dark)
	}
	return s.Get(Light)
}

// Get returns a theme by name, or the plain theme for unknown names.
func (s *Service) Get(name string) *Theme {
	if s.profile == termenv.Ascii {
		return s.themes[Plain]
	}
	if theme, ok := s.themes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return theme
	}
	logger.Debug("Unknown theme requested, using plain theme", "theme", name)
	return s.themes[Plain]
}

// Names returns the available theme names, sorted.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.themes))
	for name := range s.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadTheme(name string) (*Theme, error) {
	data, err := themeFS.ReadFile("themes/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read theme %s: %w", name, err)
	}

	var file chattypes.ThemeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse theme %s: %w", name, err)
	}
	return convert(&file.ThemeConfig), nil
}

func convert(cfg *chattypes.ThemeConfig) *Theme {
	st := cfg.Styles
	return &Theme{
		Name:         cfg.Name,
		Glamour:      cfg.Glamour,
		User:         createStyle(st.User),
		Answer:       createStyle(st.Answer),
		Reasoning:    createStyle(st.Reasoning),
		Tool:         createStyle(st.Tool),
		System:       createStyle(st.System),
		Timestamp:    createStyle(st.Timestamp),
		Connected:    createStyle(st.Connected).Padding(0, 1),
		Disconnected: createStyle(st.Disconnected).Padding(0, 1),
		Info:         createStyle(st.Info),
		Success:      createStyle(st.Success),
		Warning:      createStyle(st.Warning),
		Error:        createStyle(st.Error),
		Body:         createStyle(st.Body),
	}
}

func createStyle(cfg chattypes.StyleConfig) lipgloss.Style {
	style := lipgloss.NewStyle()

	if color := parseColor(cfg.Foreground); color != nil {
		style = style.Foreground(color)
	}
	if color := parseColor(cfg.Background); color != nil {
		style = style.Background(color)
	}

	if cfg.Bold != nil && *cfg.Bold {
		style = style.Bold(true)
	}
	if cfg.Italic != nil && *cfg.Italic {
		style = style.Italic(true)
	}
	if cfg.Underline != nil && *cfg.Underline {
		style = style.Underline(true)
	}
	if cfg.Faint != nil && *cfg.Faint {
		style = style.Faint(true)
	}
	if cfg.Strikethrough != nil && *cfg.Strikethrough {
		style = style.Strikethrough(true)
	}
	return style
}

// parseColor accepts a color string or a map with light and dark keys.
func parseColor(value interface{}) lipgloss.TerminalColor {
	switch v := value.(type) {
	case string:
		return lipgloss.Color(v)
	case map[string]interface{}:
		light, hasLight := v["light"].(string)
		dark, hasDark := v["dark"].(string)
		if hasLight && hasDark {
			return lipgloss.AdaptiveColor{Light: light, Dark: dark}
		}
		return nil
	default:
		return nil
	}
}

func plainTheme() *Theme {
	plain := lipgloss.NewStyle()
	return &Theme{
		Name:         Plain,
		Glamour:      "notty",
		User:         plain,
		Answer:       plain,
		Reasoning:    plain,
		Tool:         plain,
		System:       plain,
		Timestamp:    plain,
		Connected:    plain,
		Disconnected: plain,
		Info:         plain,
		Success:      plain,
		Warning:      plain,
		Error:        plain,
		Body:         plain,
	}
}
