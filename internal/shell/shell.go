// Package shell is the line-oriented front end. Input is read with readline and every
// application call is made on an event loop, so connection events and user input never
// run concurrently.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"mcpchat/internal/app"
	"mcpchat/internal/config"
	"mcpchat/internal/eventloop"
	"mcpchat/internal/logger"
	"mcpchat/internal/output"
	"mcpchat/internal/theme"
	"mcpchat/internal/version"
)

// Prompt is the input prompt of the shell.
const Prompt = "mcpchat> "

// LineReader reads one line of input. *readline.Instance implements it; it returns
// readline.ErrInterrupt on Ctrl-C and io.EOF on Ctrl-D.
type LineReader interface {
	Readline() (string, error)
}

// Shell ties an App, its event loop and a readline instance together.
type Shell struct {
	app     *app.App
	loop    *eventloop.Loop
	rl      *readline.Instance
	view    *View
	printer *output.Printer
	log     *log.Logger

	// submit receives every non-blank line, unmodified, on the event loop.
	submit func(line string)
}

// New creates the shell. loop must be the Poster the App was built with.
func New(a *app.App, loop *eventloop.Loop, cfg *config.Config) (*Shell, error) {
	if err := os.MkdirAll(cfg.ConfigDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            Prompt,
		HistoryFile:       cfg.HistoryPath(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("starting readline: %w", err)
	}

	s := &Shell{
		app:    a,
		loop:   loop,
		rl:     rl,
		log:    logger.NewStyledLogger("Shell"),
		submit: a.Submit,
	}

	// readline's Stdout redraws the prompt around asynchronous output.
	w := rl.Stdout()
	s.printer = output.NewPrinter(output.WithWriter(w), output.WithStyles(a.Theme()))
	s.view = NewView(w, s.printer, s.currentTheme, func() bool { return a.Preferences().ShowReasoning })
	return s, nil
}

// Run connects, reads input until the user exits, then shuts the connection down.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- s.loop.Run(ctx)
	}()

	s.loop.Call(func() {
		s.app.Observe(s.view.OnChange)
		s.app.OnStatus(s.view.OnStatus)
		s.app.OnPreferences(s.onPreferences)
		s.printer.Println(fmt.Sprintf("mcpchat v%s - %s", version.Version, s.app.Endpoint()))
		s.printer.Println("Type /help for commands. Press Ctrl-D to exit.")
		s.app.Start(ctx)
	})

	readErr := s.readLoop(s.rl)
	s.log.Debug("Shell stopped")

	s.loop.Call(s.app.Stop)
	s.loop.Stop()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return readErr
}

// readLoop submits lines until EOF or two consecutive interrupts on an empty line.
func (s *Shell) readLoop(r LineReader) error {
	interrupts := 0
	for {
		line, err := r.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line != "" {
				interrupts = 0
				continue
			}
			interrupts++
			if interrupts >= 2 {
				return nil
			}
			s.printer.Println("Press Ctrl-C again or Ctrl-D to exit.")
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("reading input: %w", err)
		}

		interrupts = 0
		s.processInput(line)
	}
}

// processInput hands a line to the App exactly as typed. Quotes, repeated spaces and
// trailing backslashes are chat text, not shell syntax.
func (s *Shell) processInput(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if !s.loop.Call(func() { s.submit(line) }) {
		s.log.Warn("Input dropped, event loop stopped", "input", line)
	}
}

func (s *Shell) onPreferences(_ config.Preferences) {
	s.printer.SetStyleProvider(s.app.Theme())
}

func (s *Shell) currentTheme() *theme.Theme {
	return s.app.Theme()
}
