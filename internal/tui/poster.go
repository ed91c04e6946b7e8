package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// callbackMsg carries a function to run inside Update.
type callbackMsg struct {
	fn func()
}

// ProgramPoster makes the bubbletea event loop the serial executor of the App. Functions
// posted before the program is attached are queued and delivered on Attach.
type ProgramPoster struct {
	mu      sync.Mutex
	program *tea.Program
	queued  []func()
}

// Attach sets the program and flushes queued functions. It may be called before Run.
func (p *ProgramPoster) Attach(program *tea.Program) {
	p.mu.Lock()
	p.program = program
	queued := p.queued
	p.queued = nil
	p.mu.Unlock()

	if len(queued) == 0 {
		return
	}
	go func() {
		for _, fn := range queued {
			program.Send(callbackMsg{fn: fn})
		}
	}()
}

// Post implements connection.Poster. It must not be called from Update.
func (p *ProgramPoster) Post(fn func()) {
	p.mu.Lock()
	program := p.program
	if program == nil {
		p.queued = append(p.queued, fn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	program.Send(callbackMsg{fn: fn})
}
