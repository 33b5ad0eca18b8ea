// Package server exposes the most recently published quotes over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"cryptoquotes/internal/quote"
)

// Source is the presenter surface the server needs. *presenter.Holder
// satisfies it.
type Source interface {
	LoadData()
	Subscribe(fn func([]quote.CurrencyQuote)) (unsubscribe func())
	SubscribeErrors(fn func(error)) (unsubscribe func())
}

type quotesResponse struct {
	Quotes    []quote.CurrencyQuote `json:"quotes"`
	UpdatedAt time.Time             `json:"updated_at"`
	LastError string                `json:"last_error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type snapshot struct {
	quotes    []quote.CurrencyQuote
	updatedAt time.Time
}

// Server serves a read-only view of what the source publishes. Subscriber
// callbacks store into atomics, so handlers never touch presenter state.
type Server struct {
	src     Source
	log     zerolog.Logger
	now     func() time.Time
	latest  atomic.Pointer[snapshot]
	lastErr atomic.Pointer[string]
	unsubs  []func()
}

// New subscribes to src. Call Close to unsubscribe.
func New(src Source, log zerolog.Logger) *Server {
	s := &Server{src: src, log: log, now: time.Now}
	s.unsubs = append(s.unsubs,
		src.Subscribe(func(q []quote.CurrencyQuote) {
			s.latest.Store(&snapshot{quotes: q, updatedAt: s.now().UTC()})
			s.lastErr.Store(nil)
		}),
		src.SubscribeErrors(func(err error) {
			msg := err.Error()
			s.lastErr.Store(&msg)
		}),
	)
	return s
}

func (s *Server) Close() {
	for _, u := range s.unsubs {
		u()
	}
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/quotes", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleGetQuotes(w)
	})
	mux.HandleFunc("/api/quotes/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.src.LoadData()
		w.WriteHeader(http.StatusAccepted)
	})

	return withJSONHeaders(withGzip(recoverPanic(s.log, logRequests(s.log, mux))))
}

func (s *Server) handleGetQuotes(w http.ResponseWriter) {
	var lastErr string
	if p := s.lastErr.Load(); p != nil {
		lastErr = *p
	}

	snap := s.latest.Load()
	if snap == nil {
		msg := "quotes not loaded yet"
		if lastErr != "" {
			msg += ": " + lastErr
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return
	}

	writeJSON(w, http.StatusOK, quotesResponse{
		Quotes:    snap.quotes,
		UpdatedAt: snap.updatedAt,
		LastError: lastErr,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// Run serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info().Msg("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
