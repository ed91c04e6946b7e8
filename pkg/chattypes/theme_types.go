package chattypes

// ThemeConfig is a theme definition loaded from YAML.
type ThemeConfig struct {
	// Name is the theme identifier ("light", "dark").
	Name string `yaml:"name" json:"name"`

	// Description provides a brief description of the theme.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Glamour is the markdown style used for answers and notices ("light", "dark", "notty").
	Glamour string `yaml:"glamour" json:"glamour"`

	// Styles contains the color and style definitions for transcript elements.
	Styles ThemeStyles `yaml:"styles" json:"styles"`
}

// ThemeStyles defines the styling of each transcript element.
type ThemeStyles struct {
	User         StyleConfig `yaml:"user" json:"user"`
	Answer       StyleConfig `yaml:"answer" json:"answer"`
	Reasoning    StyleConfig `yaml:"reasoning" json:"reasoning"`
	Tool         StyleConfig `yaml:"tool" json:"tool"`
	System       StyleConfig `yaml:"system" json:"system"`
	Timestamp    StyleConfig `yaml:"timestamp" json:"timestamp"`
	Connected    StyleConfig `yaml:"connected" json:"connected"`
	Disconnected StyleConfig `yaml:"disconnected" json:"disconnected"`
	Info         StyleConfig `yaml:"info" json:"info"`
	Success      StyleConfig `yaml:"success" json:"success"`
	Warning      StyleConfig `yaml:"warning" json:"warning"`
	Error        StyleConfig `yaml:"error" json:"error"`
	Body         StyleConfig `yaml:"body" json:"body"`
}

// StyleConfig defines the visual styling for one element.
// Colors may be a plain string or a map with "light" and "dark" keys.
type StyleConfig struct {
	Foreground    interface{} `yaml:"foreground,omitempty" json:"foreground,omitempty"`
	Background    interface{} `yaml:"background,omitempty" json:"background,omitempty"`
	Bold          *bool       `yaml:"bold,omitempty" json:"bold,omitempty"`
	Italic        *bool       `yaml:"italic,omitempty" json:"italic,omitempty"`
	Underline     *bool       `yaml:"underline,omitempty" json:"underline,omitempty"`
	Faint         *bool       `yaml:"faint,omitempty" json:"faint,omitempty"`
	Strikethrough *bool       `yaml:"strikethrough,omitempty" json:"strikethrough,omitempty"`
}

// ThemeFile represents a complete theme file loaded from YAML.
type ThemeFile struct {
	ThemeConfig `yaml:",inline" json:",inline"`
}
