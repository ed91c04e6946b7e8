package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpchat/internal/eventloop"
	"mcpchat/internal/logger"
	"mcpchat/internal/output"
)

type scriptedLine struct {
	line string
	err  error
}

type scriptedReader struct {
	lines []scriptedLine
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	next := r.lines[0]
	r.lines = r.lines[1:]
	return next.line, next.err
}

func newInputShell(t *testing.T) (*Shell, *[]string, *bytes.Buffer) {
	t.Helper()
	loop := eventloop.New(8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	var got []string
	var status bytes.Buffer
	s := &Shell{
		loop:    loop,
		printer: output.NewPrinter(output.WithWriter(&status), output.TestMode()),
		log:     logger.NewStyledLogger("Shell"),
		submit:  func(line string) { got = append(got, line) },
	}
	return s, &got, &status
}

func TestReadLoopSubmitsLinesVerbatim(t *testing.T) {
	s, got, _ := newInputShell(t)
	reader := &scriptedReader{lines: []scriptedLine{
		{line: "what's up?"},
		{line: "a  b"},
		{line: `say "hi`},
		{line: `ends with \`},
		{line: "cat << EOF"},
		{line: "   "},
		{line: "/reasoning off"},
	}}

	require.NoError(t, s.readLoop(reader))

	assert.Equal(t, []string{
		"what's up?",
		"a  b",
		`say "hi`,
		`ends with \`,
		"cat << EOF",
		"/reasoning off",
	}, *got)
}

func TestReadLoopInterrupts(t *testing.T) {
	s, got, status := newInputShell(t)
	reader := &scriptedReader{lines: []scriptedLine{
		{line: "", err: readline.ErrInterrupt},
		{line: "still here"},
		{line: "half typed", err: readline.ErrInterrupt},
		{line: "", err: readline.ErrInterrupt},
		{line: "", err: readline.ErrInterrupt},
		{line: "never sent"},
	}}

	require.NoError(t, s.readLoop(reader))

	assert.Equal(t, []string{"still here"}, *got)
	assert.Equal(t, "Press Ctrl-C again or Ctrl-D to exit.\nPress Ctrl-C again or Ctrl-D to exit.\n", status.String())
}

func TestReadLoopReturnsReadErrors(t *testing.T) {
	s, _, _ := newInputShell(t)
	boom := errors.New("terminal gone")

	err := s.readLoop(&scriptedReader{lines: []scriptedLine{{err: boom}}})

	assert.ErrorIs(t, err, boom)
}
