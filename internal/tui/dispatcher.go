package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// dispatchMsg carries a function posted from a background goroutine into the
// Bubble Tea event loop.
type dispatchMsg struct {
	fn func()
}

// ProgramDispatcher implements dispatch.Dispatcher on top of a Bubble Tea
// program, so posted functions run inside Update alongside key and window
// events. The receiving model must run dispatchMsg.fn; Model does.
//
// The program and the model depend on each other, so the dispatcher is created
// first and attached once the program exists. Posts made before Attach are held
// and delivered in order on attach. Posts made while that backlog drains queue
// behind it, so functions posted from one goroutine run in post order.
type ProgramDispatcher struct {
	mu       sync.Mutex
	program  *tea.Program
	pending  []func()
	draining bool
}

func NewProgramDispatcher() *ProgramDispatcher {
	return &ProgramDispatcher{}
}

// Post delivers fn to the program. After the program has exited fn is dropped.
func (d *ProgramDispatcher) Post(fn func()) {
	d.mu.Lock()
	p := d.program
	if p == nil || d.draining {
		d.pending = append(d.pending, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	p.Send(dispatchMsg{fn: fn})
}

// Attach binds the dispatcher to p. It does not block: p.Send waits for the
// event loop, which only starts once p.Run is called.
func (d *ProgramDispatcher) Attach(p *tea.Program) {
	d.mu.Lock()
	d.program = p
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	d.draining = true
	d.mu.Unlock()

	go d.drain(p)
}

// drain sends the backlog until it is empty, then lets Post send directly.
func (d *ProgramDispatcher) drain(p *tea.Program) {
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		if len(batch) == 0 {
			d.draining = false
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		for _, fn := range batch {
			p.Send(dispatchMsg{fn: fn})
		}
	}
}
