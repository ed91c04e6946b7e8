// Package app is the application context shared by the front ends. It owns the
// connection, the stream aggregator, the transcript and the user's preferences, and
// turns user actions into protocol traffic.
//
// An App is not safe for concurrent use: every method, and every callback it registers,
// runs on the serial executor passed in Options.Poster.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"mcpchat/internal/clipboard"
	"mcpchat/internal/config"
	"mcpchat/internal/connection"
	"mcpchat/internal/logger"
	"mcpchat/internal/protocol"
	"mcpchat/internal/render"
	"mcpchat/internal/stream"
	"mcpchat/internal/theme"
	"mcpchat/internal/transcript"
	"mcpchat/pkg/chattypes"
)

// Notices shown by the client itself.
const (
	NoticeNotConnected   = "Not connected to the server. Reconnecting..."
	NoticeResetOffline   = "Not connected to the server. Cannot reset the conversation."
	NoticeNoCodeBlock    = "There is no code block to copy."
	NoticeDisconnected   = "Disconnected. Use `/connect` to reconnect."
	NoticeAlreadyOffline = "Already disconnected."
)

// Options configures an App. Config and Poster are required.
type Options struct {
	Config    *config.Config
	Poster    connection.Poster
	Dialer    connection.Dialer
	Scheduler connection.Scheduler
	Store     *config.PreferenceStore
	Themes    *theme.Service
	Copy      func(text string) error
	Now       func() time.Time
	NewID     func() string
}

// App is the explicit context object of the client.
type App struct {
	cfg        *config.Config
	conn       *connection.Manager
	agg        *stream.Aggregator
	transcript *transcript.Transcript
	formatter  *render.Formatter
	themes     *theme.Service
	theme      *theme.Theme
	store      *config.PreferenceStore
	prefs      config.Preferences
	copy       func(string) error
	log        *log.Logger

	ctx context.Context

	statusListeners []func(chattypes.ConnState)
	prefListeners   []func(config.Preferences)
}

// New builds the App and loads the stored preferences. It does not connect.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("app requires a configuration")
	}
	if opts.Poster == nil {
		return nil, fmt.Errorf("app requires a poster")
	}

	a := &App{
		cfg:        opts.Config,
		transcript: transcript.New(),
		themes:     opts.Themes,
		store:      opts.Store,
		copy:       opts.Copy,
		log:        logger.NewStyledLogger("App"),
		ctx:        context.Background(),
	}
	if a.themes == nil {
		a.themes = theme.NewService()
	}
	if a.store == nil {
		a.store = config.NewPreferenceStore(opts.Config.PreferencesPath())
	}
	if a.copy == nil {
		a.copy = clipboard.Copy
	}

	prefs, err := a.store.Load()
	if err != nil {
		a.log.Warn("Using default preferences", "error", err)
	}
	a.prefs = prefs
	a.theme = a.themes.ForDarkMode(prefs.DarkMode)

	formatter, err := render.NewFormatter(a.theme.Glamour, opts.Config.WordWrap)
	if err != nil {
		return nil, err
	}
	a.formatter = formatter

	a.agg = stream.New(stream.Options{
		Formatter:     formatter,
		Renderer:      a.transcript,
		ShowReasoning: func() bool { return a.prefs.ShowReasoning },
		Now:           opts.Now,
		NewID:         opts.NewID,
	})

	dialer := opts.Dialer
	if dialer == nil {
		dialer = connection.WebSocketDialer{HandshakeTimeout: opts.Config.HandshakeTimeout}
	}
	a.conn = connection.New(connection.Options{
		URL:            opts.Config.Endpoint,
		ReconnectDelay: opts.Config.ReconnectDelay,
		Dialer:         dialer,
		Scheduler:      opts.Scheduler,
		Poster:         opts.Poster,
		Dispatcher:     a,
		OnStatus:       a.handleStatus,
	})

	return a, nil
}

// Start opens the connection.
func (a *App) Start(ctx context.Context) {
	a.ctx = ctx
	a.conn.Connect(ctx)
}

// Stop closes the connection for good.
func (a *App) Stop() {
	a.conn.Shutdown()
}

// Dispatch implements connection.Dispatcher. An empty history, sent by the backend after
// a reset, clears the transcript; other events go to the aggregator.
func (a *App) Dispatch(ev chattypes.Event) {
	if ev.Type == chattypes.EventHistory {
		if protocol.IsEmptyHistory(ev) {
			a.log.Debug("Conversation reset by server")
			a.clearTranscript()
		}
		return
	}
	a.agg.Dispatch(ev)
}

// Submit handles one line typed by the user.
func (a *App) Submit(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if a.runLocalCommand(text) {
		return
	}

	if a.conn.State() != chattypes.StateOpen {
		a.notice(NoticeNotConnected)
		a.conn.Connect(a.ctx)
		return
	}

	if text == "/quit" {
		a.conn.SuppressReconnect()
	}

	a.agg.BeginTurn()
	a.agg.User(text)
	a.send(text)
}

// SendCommand sends a bare command keyword, shown as "/keyword". It retires the active
// answer without starting a new session.
func (a *App) SendCommand(command string) {
	if a.conn.State() != chattypes.StateOpen {
		a.notice(NoticeNotConnected)
		a.conn.Connect(a.ctx)
		return
	}

	a.agg.Reset()
	a.agg.User("/" + command)
	a.send(command)
}

// NewChat asks the backend to reset the conversation and clears the transcript.
func (a *App) NewChat() {
	if a.conn.State() != chattypes.StateOpen {
		a.notice(NoticeResetOffline)
		return
	}
	a.SendCommand("reset")
	a.clearTranscript()
}

// Clear empties the transcript locally.
func (a *App) Clear() {
	a.clearTranscript()
}

func (a *App) clearTranscript() {
	a.transcript.Clear()
	a.agg.Reset()
}

func (a *App) send(payload string) {
	a.transcript.Pending(true)
	if err := a.conn.Send(payload); err != nil {
		a.transcript.Pending(false)
		a.log.Error("Message not sent", "error", err)
		a.notice(fmt.Sprintf("Message not sent: %v", err))
	}
}

// notice shows a client-side system notice.
func (a *App) notice(text string) {
	a.agg.System(text)
}

func (a *App) handleStatus(state chattypes.ConnState) {
	if state == chattypes.StateDisconnected {
		a.transcript.Pending(false)
	}
	for _, fn := range a.statusListeners {
		fn(state)
	}
}

// OnStatus registers a connection state listener.
func (a *App) OnStatus(fn func(chattypes.ConnState)) {
	a.statusListeners = append(a.statusListeners, fn)
}

// OnPreferences registers a listener for preference changes.
func (a *App) OnPreferences(fn func(config.Preferences)) {
	a.prefListeners = append(a.prefListeners, fn)
}

// Observe registers the transcript observer.
func (a *App) Observe(fn func(transcript.Change)) {
	a.transcript.Observe(fn)
}

// Transcript returns the transcript.
func (a *App) Transcript() *transcript.Transcript {
	return a.transcript
}

// Aggregator returns the stream aggregator.
func (a *App) Aggregator() *stream.Aggregator {
	return a.agg
}

// ConnectionState returns the current connection state.
func (a *App) ConnectionState() chattypes.ConnState {
	return a.conn.State()
}

// Endpoint returns the backend URL.
func (a *App) Endpoint() string {
	return a.conn.URL()
}

// Preferences returns the current preferences.
func (a *App) Preferences() config.Preferences {
	return a.prefs
}

// Theme returns the active theme.
func (a *App) Theme() *theme.Theme {
	return a.theme
}

// Connect opens the connection manually, clearing a previous user disconnect.
func (a *App) Connect() {
	a.conn.Connect(a.ctx)
}

// Disconnect closes the connection and stops automatic reconnection.
func (a *App) Disconnect() {
	if a.conn.State() == chattypes.StateDisconnected && a.conn.UserDisconnected() {
		a.notice(NoticeAlreadyOffline)
		return
	}
	a.conn.Disconnect()
	a.notice(NoticeDisconnected)
}

// SetShowReasoning changes and persists the reasoning preference.
func (a *App) SetShowReasoning(show bool) {
	if a.prefs.ShowReasoning == show {
		return
	}
	a.prefs.ShowReasoning = show
	a.savePreferences()
}

// ToggleReasoning flips the reasoning preference.
func (a *App) ToggleReasoning() {
	a.SetShowReasoning(!a.prefs.ShowReasoning)
}

// SetDarkMode switches the theme, re-renders the transcript and persists the choice.
func (a *App) SetDarkMode(dark bool) {
	if a.prefs.DarkMode == dark {
		return
	}
	a.prefs.DarkMode = dark
	a.theme = a.themes.ForDarkMode(dark)
	if err := a.formatter.SetStyle(a.theme.Glamour); err != nil {
		a.log.Warn("Markdown style unchanged", "error", err)
	}
	a.transcript.Restyle(a.format)
	a.savePreferences()
}

// ToggleDarkMode flips the theme preference.
func (a *App) ToggleDarkMode() {
	a.SetDarkMode(!a.prefs.DarkMode)
}

// Resize re-wraps the transcript for a new width.
func (a *App) Resize(width int) {
	if width <= 0 {
		return
	}
	if width == a.cfg.WordWrap {
		return
	}
	if err := a.formatter.SetWordWrap(width); err != nil {
		a.log.Debug("Word wrap unchanged", "error", err)
		return
	}
	a.cfg.WordWrap = width
	a.transcript.Restyle(a.format)
}

// Markdown renders client text (help, notices) with the current style.
func (a *App) Markdown(source string) string {
	return a.formatter.Markdown(source)
}

func (a *App) format(unit chattypes.Unit) string {
	return a.formatter.Format(unit.Kind, unit.Source)
}

func (a *App) savePreferences() {
	if err := a.store.Save(a.prefs); err != nil {
		a.log.Warn("Preferences not saved", "error", err)
		a.notice(fmt.Sprintf("Preferences not saved: %v", err))
	}
	for _, fn := range a.prefListeners {
		fn(a.prefs)
	}
}

// CopyCodeBlock copies block n (1-based, 0 for the last one) of the latest answer with
// code. Without a clipboard the code is shown in a notice instead.
func (a *App) CopyCodeBlock(n int) {
	block, ok := a.transcript.CodeBlock(n)
	if !ok {
		a.notice(NoticeNoCodeBlock)
		return
	}

	if err := a.copy(block.Code); err != nil {
		a.log.Debug("Clipboard copy failed", "error", err)
		a.notice(fmt.Sprintf("Clipboard unavailable (%v). Code block #%d:\n\n```%s\n%s```",
			err, block.Index, block.Language, ensureNewline(block.Code)))
		return
	}
	a.notice(fmt.Sprintf("Copied code block #%d (%s) to the clipboard.", block.Index, block.Language))
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
