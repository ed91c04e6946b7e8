package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send            key.Binding
	Newline         key.Binding
	ToggleReasoning key.Binding
	ToggleTheme     key.Binding
	NewChat         key.Binding
	Clear           key.Binding
	Quit            key.Binding
	PageUp          key.Binding
	PageDown        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "newline"),
		),
		ToggleReasoning: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reasoning"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "theme"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "scroll down"),
		),
	}
}

// shortHelp lists the bindings shown in the status bar.
func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Newline, k.ToggleReasoning, k.ToggleTheme, k.NewChat, k.Clear, k.Quit}
}
