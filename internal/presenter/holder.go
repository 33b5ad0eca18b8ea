// Package presenter holds the quotes shown by a display session and runs the
// fetch → decode → publish pipeline that refreshes them.
package presenter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"cryptoquotes/internal/dispatch"
	"cryptoquotes/internal/provider"
	"cryptoquotes/internal/quote"
)

// State reports whether any fetch is in flight.
type State int

const (
	Idle State = iota
	Loading
)

func (s State) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// Decoder turns a fetched body into quotes. quote.Decoder satisfies it.
type Decoder interface {
	Decode(b []byte) ([]quote.CurrencyQuote, error)
}

type Option func(*Holder)

// WithLogger sets the logger used for fetch lifecycle and failures.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Holder) {
		h.log = l
	}
}

// Holder owns the latest successfully decoded quotes for one display session.
//
// quotes and lastErr are touched only from functions posted to the dispatcher,
// so every read must happen there as well: inside a subscriber, or inside a
// function handed to the same dispatcher.
type Holder struct {
	fetcher provider.Fetcher
	decoder Decoder
	ui      dispatch.Dispatcher
	log     zerolog.Logger
	source  string

	ctx      context.Context
	cancel   context.CancelFunc
	active   atomic.Bool
	inflight atomic.Int32

	quotes  []quote.CurrencyQuote
	lastErr error

	mu      sync.Mutex
	nextSub int
	subs    []subscriber[[]quote.CurrencyQuote]
	errSubs []subscriber[error]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// New returns an active holder with an empty quote list.
func New(f provider.Fetcher, d Decoder, ui dispatch.Dispatcher, opts ...Option) *Holder {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Holder{
		fetcher: f,
		decoder: d,
		ui:      ui,
		log:     zerolog.Nop(),
		source:  f.Name(),
		ctx:     ctx,
		cancel:  cancel,
		quotes:  []quote.CurrencyQuote{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.active.Store(true)
	return h
}

// Quotes returns the current list. Call it only on the dispatcher's context.
// The slice is shared with subscribers and must not be modified.
func (h *Holder) Quotes() []quote.CurrencyQuote { return h.quotes }

// LastErr returns the most recent load failure since the last success, or nil.
// Same context rules as Quotes.
func (h *Holder) LastErr() error { return h.lastErr }

// State is Loading while at least one fetch started by LoadData is in flight.
func (h *Holder) State() State {
	if h.inflight.Load() > 0 {
		return Loading
	}
	return Idle
}

// Subscribe registers fn to receive every new quote list. fn runs on the
// dispatcher's context. The returned func removes the subscription.
func (h *Holder) Subscribe(fn func([]quote.CurrencyQuote)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextSub++
	id := h.nextSub
	h.subs = append(h.subs, subscriber[[]quote.CurrencyQuote]{id: id, fn: fn})
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.subs = remove(h.subs, id)
	}
}

// SubscribeErrors registers fn to receive load failures. Failures never change
// the quote list.
func (h *Holder) SubscribeErrors(fn func(error)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextSub++
	id := h.nextSub
	h.errSubs = append(h.errSubs, subscriber[error]{id: id, fn: fn})
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.errSubs = remove(h.errSubs, id)
	}
}

func remove[T any](subs []subscriber[T], id int) []subscriber[T] {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// LoadData starts one fetch and returns immediately. Overlapping calls are not
// coalesced here; whichever result is applied last wins. It is a no-op after Close.
func (h *Holder) LoadData() {
	if !h.active.Load() {
		return
	}
	h.inflight.Add(1)
	go h.load(ulid.Make().String())
}

func (h *Holder) load(fetchID string) {
	defer h.inflight.Add(-1)

	log := h.log.With().Str("fetch_id", fetchID).Str("source", h.source).Logger()
	log.Debug().Msg("fetch started")
	start := time.Now()

	body, err := h.fetcher.Fetch(h.ctx)
	if err != nil {
		h.fail(log, "fetch", err)
		return
	}

	quotes, err := h.decoder.Decode(body)
	if err != nil {
		h.fail(log, "decode", err)
		return
	}

	log.Info().
		Int("count", len(quotes)).
		Dur("elapsed", time.Since(start)).
		Msg("quotes loaded")
	h.ui.Post(func() { h.apply(quotes) })
}

func (h *Holder) apply(quotes []quote.CurrencyQuote) {
	if !h.active.Load() {
		return
	}
	h.quotes = quotes
	h.lastErr = nil

	h.mu.Lock()
	subs := append([]subscriber[[]quote.CurrencyQuote](nil), h.subs...)
	h.mu.Unlock()
	for _, s := range subs {
		s.fn(quotes)
	}
}

func (h *Holder) fail(log zerolog.Logger, stage string, err error) {
	if h.ctx.Err() != nil {
		log.Debug().Err(err).Str("stage", stage).Msg("load abandoned after close")
		return
	}
	log.Error().Err(err).Str("stage", stage).Msg("load failed; keeping previous quotes")

	h.ui.Post(func() {
		if !h.active.Load() {
			return
		}
		h.lastErr = err

		h.mu.Lock()
		subs := append([]subscriber[error](nil), h.errSubs...)
		h.mu.Unlock()
		for _, s := range subs {
			s.fn(err)
		}
	})
}

// Close ends the session: in-flight fetches are canceled and any result that
// still arrives is ignored. It is safe to call more than once.
func (h *Holder) Close() {
	h.active.Store(false)
	h.cancel()
}
