package ratelimit

import (
	"context"
	"sync"
	"time"

	"cryptoquotes/internal/provider"
)

// MinInterval wraps a fetcher and enforces a minimum time between the starts of
// consecutive calls. Each caller reserves the next free slot before waiting, so
// overlapping callers are spaced out rather than released together. A caller
// whose context ends while waiting returns a network FetchError.
type MinInterval struct {
	F        provider.Fetcher
	Interval time.Duration
	mu       sync.Mutex
	next     time.Time
}

func (m *MinInterval) Name() string { return m.F.Name() }

func (m *MinInterval) Fetch(ctx context.Context) ([]byte, error) {
	if m.Interval > 0 {
		if err := m.reserve(ctx); err != nil {
			return nil, err
		}
	}
	return m.F.Fetch(ctx)
}

func (m *MinInterval) reserve(ctx context.Context) error {
	m.mu.Lock()
	now := time.Now()
	slot := m.next
	if slot.Before(now) {
		slot = now
	}
	m.next = slot.Add(m.Interval)
	m.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return provider.Network(ctx.Err())
	case <-t.C:
		return nil
	}
}
