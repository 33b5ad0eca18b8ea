// Package tui is the interactive terminal display for the quote list.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"cryptoquotes/internal/presenter"
	"cryptoquotes/internal/quote"
)

const (
	keyQuit  = "q"
	keyCtrlC = "ctrl+c"
	keyRetry = "r"
	keyUp    = "up"
	keyDown  = "down"
	keyK     = "k"
	keyJ     = "j"

	defaultWidth  = 80
	defaultHeight = 24
)

// Source is the presenter surface the display needs. *presenter.Holder
// satisfies it.
type Source interface {
	LoadData()
	State() presenter.State
	Subscribe(fn func([]quote.CurrencyQuote)) (unsubscribe func())
	SubscribeErrors(fn func(error)) (unsubscribe func())
}

// ViewState is the display's coarse state.
type ViewState int

const (
	ViewStateLoading ViewState = iota
	ViewStateList
	ViewStateQuitting
)

// feed receives subscriber callbacks. Callbacks only run inside Update (via
// dispatchMsg), so it is written and read on the same goroutine.
type feed struct {
	quotes []quote.CurrencyQuote
	err    error
	loaded bool
}

// Model is the Bubble Tea model for the quote list.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type Model struct {
	src  Source
	feed *feed

	state   ViewState
	quotes  []quote.CurrencyQuote
	err     error
	offset  int
	spinner spinner.Model

	width  int
	height int
}

// NewModel subscribes to src and returns a model that loads on Init.
func NewModel(src Source) Model {
	f := &feed{}
	src.Subscribe(func(q []quote.CurrencyQuote) {
		f.quotes = q
		f.err = nil
		f.loaded = true
	})
	src.SubscribeErrors(func(err error) {
		f.err = err
	})

	return Model{
		src:    src,
		feed:   f,
		state:  ViewStateLoading,
		quotes: []quote.CurrencyQuote{},
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(SpinnerStyle),
		),
		width:  defaultWidth,
		height: defaultHeight,
	}
}

// Init marks the list as visible, which starts the first load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m Model) load() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		src.LoadData()
		return nil
	}
}

// Update handles messages and updates the model state (Bubble Tea interface).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dispatchMsg:
		msg.fn()
		return m.sync(), nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.offset = m.clampOffset(m.offset)
		return m, nil
	case spinner.TickMsg:
		if m.state == ViewStateQuitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit, keyCtrlC:
		m.state = ViewStateQuitting
		return m, tea.Quit
	case keyRetry:
		return m, m.load()
	case keyUp, keyK:
		m.offset = m.clampOffset(m.offset - 1)
	case keyDown, keyJ:
		m.offset = m.clampOffset(m.offset + 1)
	}
	return m, nil
}

// sync copies what subscribers received into the model.
func (m Model) sync() Model {
	m.err = m.feed.err
	if m.feed.loaded {
		m.quotes = m.feed.quotes
		m.state = ViewStateList
		m.offset = m.clampOffset(m.offset)
	}
	return m
}

func (m Model) clampOffset(off int) int {
	maxOff := len(m.quotes) - m.visibleCount()
	if off > maxOff {
		off = maxOff
	}
	if off < 0 {
		off = 0
	}
	return off
}
