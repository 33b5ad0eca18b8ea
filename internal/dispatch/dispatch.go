// Package dispatch provides the single execution context that owns display state.
//
// Everything that mutates or reads presenter state is posted here, so that state
// needs no locking of its own.
package dispatch

import (
	"context"
	"sync"
)

// Dispatcher runs fn on the display-owning context. Post returns without waiting
// for fn to run.
type Dispatcher interface {
	Post(fn func())
}

// Func adapts an ordinary function to Dispatcher.
type Func func(fn func())

func (f Func) Post(fn func()) { f(fn) }

// Loop is a Dispatcher backed by one goroutine draining a FIFO queue.
type Loop struct {
	queue chan func()
	stop  chan struct{}
	once  sync.Once
}

// NewLoop returns a loop whose queue holds up to size pending functions before
// Post blocks.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		queue: make(chan func(), size),
		stop:  make(chan struct{}),
	}
}

// Post enqueues fn. After Stop it is dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.stop:
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.stop:
	}
}

// Run executes posted functions in order until Stop is called or ctx ends.
// Only one Run may be active at a time.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-l.stop:
			return
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stop ends Run and discards anything still queued. It is safe to call more than once.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.stop) })
}
