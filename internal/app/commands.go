package app

import (
	"fmt"
	"strconv"
	"strings"
)

// ServerCommands are forwarded to the backend verbatim.
var ServerCommands = []string{"/reset", "/key", "/view", "/resources", "/resource", "/prompts", "/prompt", "/quit"}

// runLocalCommand executes a client-side slash command. It returns false for anything
// that should be sent to the server.
func (a *App) runLocalCommand(text string) bool {
	if !strings.HasPrefix(text, "/") {
		return false
	}

	fields := strings.Fields(text)
	name := strings.ToLower(fields[0])
	args := fields[1:]

	switch name {
	case "/clear":
		a.Clear()
	case "/new":
		a.NewChat()
	case "/reasoning":
		a.reasoningCommand(args)
	case "/theme":
		a.themeCommand(args)
	case "/copy":
		a.copyCommand(args)
	case "/connect":
		a.Connect()
	case "/disconnect":
		a.Disconnect()
	case "/help":
		a.notice(HelpText())
	default:
		return false
	}
	return true
}

func (a *App) reasoningCommand(args []string) {
	if len(args) == 0 {
		a.ToggleReasoning()
	} else {
		on, ok := parseSwitch(args[0])
		if !ok {
			a.notice("Usage: `/reasoning [on|off]`")
			return
		}
		a.SetShowReasoning(on)
	}
	a.notice(fmt.Sprintf("Reasoning display is %s.", onOff(a.prefs.ShowReasoning)))
}

func (a *App) themeCommand(args []string) {
	if len(args) == 0 {
		a.ToggleDarkMode()
	} else {
		switch strings.ToLower(args[0]) {
		case "dark":
			a.SetDarkMode(true)
		case "light":
			a.SetDarkMode(false)
		default:
			a.notice("Usage: `/theme [dark|light]`")
			return
		}
	}
	a.notice(fmt.Sprintf("Theme is %s.", a.theme.Name))
}

func (a *App) copyCommand(args []string) {
	n := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
		if err != nil || v < 1 {
			a.notice("Usage: `/copy [n]`")
			return
		}
		n = v
	}
	a.CopyCodeBlock(n)
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, true
	case "off", "false", "no", "0":
		return false, true
	default:
		return false, false
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// HelpText is the markdown shown by /help.
func HelpText() string {
	var b strings.Builder
	b.WriteString("**Client commands**\n\n")
	b.WriteString("- `/clear` clear the transcript\n")
	b.WriteString("- `/new` reset the conversation on the server and clear the transcript\n")
	b.WriteString("- `/reasoning [on|off]` show or hide reasoning steps\n")
	b.WriteString("- `/theme [dark|light]` switch the color theme\n")
	b.WriteString("- `/copy [n]` copy code block n of the latest answer (default: last)\n")
	b.WriteString("- `/connect`, `/disconnect` manage the connection\n")
	b.WriteString("- `/help` show this help\n\n")
	b.WriteString("**Server commands** (sent as typed)\n\n")
	for _, cmd := range ServerCommands {
		b.WriteString("- `" + cmd + "`\n")
	}
	return b.String()
}
