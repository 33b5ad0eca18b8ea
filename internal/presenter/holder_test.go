package presenter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cryptoquotes/internal/dispatch"
	"cryptoquotes/internal/presenter"
	"cryptoquotes/internal/provider"
	"cryptoquotes/internal/quote"
)

type harness struct {
	loop   *dispatch.Loop
	holder *presenter.Holder
	quotes chan []quote.CurrencyQuote
	errs   chan error
}

func newHarness(t *testing.T, f provider.Fetcher, opts ...presenter.Option) *harness {
	t.Helper()

	loop := dispatch.NewLoop(16)
	go loop.Run(context.Background())
	t.Cleanup(loop.Stop)

	h := presenter.New(f, quote.Decoder{}, loop, opts...)
	t.Cleanup(h.Close)

	hs := &harness{
		loop:   loop,
		holder: h,
		quotes: make(chan []quote.CurrencyQuote, 8),
		errs:   make(chan error, 8),
	}
	h.Subscribe(func(q []quote.CurrencyQuote) { hs.quotes <- q })
	h.SubscribeErrors(func(err error) { hs.errs <- err })
	return hs
}

// onUI runs fn on the dispatcher and waits for it.
func (hs *harness) onUI(fn func()) {
	done := make(chan struct{})
	hs.loop.Post(func() {
		fn()
		close(done)
	})
	<-done
}

func (hs *harness) current() []quote.CurrencyQuote {
	var q []quote.CurrencyQuote
	hs.onUI(func() { q = hs.holder.Quotes() })
	return q
}

func recv[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	var zero T
	return zero
}

func newFetcher(t *testing.T) *MockFetcher {
	ctrl := gomock.NewController(t)
	f := NewMockFetcher(ctrl)
	f.EXPECT().Name().Return("mock").AnyTimes()
	return f
}

// page builds a /coins/markets body of n records whose ids share prefix.
func page(t *testing.T, prefix string, n int) []byte {
	t.Helper()
	records := make([]map[string]any, n)
	for i := range records {
		records[i] = map[string]any{
			"id":            fmt.Sprintf("%s-%d", prefix, i),
			"symbol":        fmt.Sprintf("%s%d", prefix, i),
			"name":          fmt.Sprintf("%s %d", prefix, i),
			"current_price": float64(i) + 0.5,
			"market_cap":    float64(1000 - i),
			"total_volume":  float64(10 * i),
		}
	}
	b, err := json.Marshal(records)
	require.NoError(t, err)
	return b
}

func decoded(t *testing.T, b []byte) []quote.CurrencyQuote {
	t.Helper()
	q, err := quote.Decoder{}.Decode(b)
	require.NoError(t, err)
	return q
}

func TestHolder_StartsEmptyAndIdle(t *testing.T) {
	t.Parallel()

	hs := newHarness(t, newFetcher(t))

	require.Equal(t, presenter.Idle, hs.holder.State())
	q := hs.current()
	require.NotNil(t, q)
	require.Empty(t, q)
}

func TestHolder_LoadDataPublishesQuotes(t *testing.T) {
	t.Parallel()

	// Arrange: a fetcher returning one page
	f := newFetcher(t)
	body := page(t, "coin", 10)
	f.EXPECT().Fetch(gomock.Any()).Return(body, nil).Times(1)
	hs := newHarness(t, f)

	// Act
	hs.holder.LoadData()

	// Assert: subscribers see the decoded page in upstream order
	got := recv(t, hs.quotes)
	require.Equal(t, decoded(t, body), got)
	require.Equal(t, got, hs.current())
	require.Equal(t, "coin-0", got[0].ID)
	require.Equal(t, "coin-9", got[9].ID)
}

func TestHolder_NetworkFailureKeepsQuotes(t *testing.T) {
	t.Parallel()

	// Arrange: first load succeeds, second fails in transport
	f := newFetcher(t)
	body := page(t, "coin", 3)
	gomock.InOrder(
		f.EXPECT().Fetch(gomock.Any()).Return(body, nil),
		f.EXPECT().Fetch(gomock.Any()).Return(nil, provider.Network(errors.New("dial tcp: connection refused"))),
	)
	hs := newHarness(t, f)

	hs.holder.LoadData()
	before := recv(t, hs.quotes)

	// Act
	hs.holder.LoadData()

	// Assert: the failure is reported and the list is untouched
	err := recv(t, hs.errs)
	require.ErrorIs(t, err, provider.ErrNetwork)
	require.Equal(t, before, hs.current())

	var lastErr error
	hs.onUI(func() { lastErr = hs.holder.LastErr() })
	require.ErrorIs(t, lastErr, provider.ErrNetwork)
	require.Empty(t, hs.quotes)
}

func TestHolder_EmptyBodyKeepsQuotes(t *testing.T) {
	t.Parallel()

	f := newFetcher(t)
	f.EXPECT().Fetch(gomock.Any()).Return(nil, provider.EmptyBody())
	hs := newHarness(t, f)

	hs.holder.LoadData()

	err := recv(t, hs.errs)
	require.ErrorIs(t, err, provider.ErrEmptyBody)
	require.Empty(t, hs.current())
	require.Empty(t, hs.quotes)
}

func TestHolder_DecodeFailureKeepsQuotes(t *testing.T) {
	t.Parallel()

	f := newFetcher(t)
	good := page(t, "coin", 2)
	bad := []byte(`[{"id":"a","symbol":"a","name":"A","current_price":1,"market_cap":1,"total_volume":1},{"id":"b","symbol":"b","name":"B","market_cap":1,"total_volume":1}]`)
	gomock.InOrder(
		f.EXPECT().Fetch(gomock.Any()).Return(good, nil),
		f.EXPECT().Fetch(gomock.Any()).Return(bad, nil),
	)
	hs := newHarness(t, f)

	hs.holder.LoadData()
	before := recv(t, hs.quotes)

	hs.holder.LoadData()
	err := recv(t, hs.errs)
	require.ErrorIs(t, err, quote.ErrMalformed)
	require.Equal(t, before, hs.current())
}

func TestHolder_SuccessClearsLastErr(t *testing.T) {
	t.Parallel()

	f := newFetcher(t)
	gomock.InOrder(
		f.EXPECT().Fetch(gomock.Any()).Return(nil, provider.Status(500)),
		f.EXPECT().Fetch(gomock.Any()).Return(page(t, "coin", 1), nil),
	)
	hs := newHarness(t, f)

	hs.holder.LoadData()
	recv(t, hs.errs)
	hs.holder.LoadData()
	recv(t, hs.quotes)

	var lastErr error
	hs.onUI(func() { lastErr = hs.holder.LastErr() })
	require.NoError(t, lastErr)
}

func TestHolder_OverlappingLoadsInstallOneCompleteResponse(t *testing.T) {
	t.Parallel()

	// Arrange: whichever fetch starts first is held back until the other one
	// has been applied, so the earlier-issued request completes last.
	f := newFetcher(t)
	slow := page(t, "slow", 10)
	fast := page(t, "fast", 10)
	release := make(chan struct{})
	gomock.InOrder(
		f.EXPECT().Fetch(gomock.Any()).DoAndReturn(func(context.Context) ([]byte, error) {
			<-release
			return slow, nil
		}),
		f.EXPECT().Fetch(gomock.Any()).Return(fast, nil),
	)
	hs := newHarness(t, f)

	// Act
	hs.holder.LoadData()
	hs.holder.LoadData()
	first := recv(t, hs.quotes)
	close(release)
	second := recv(t, hs.quotes)

	// Assert: the final state is exactly one of the two responses, never a mix
	final := hs.current()
	require.Equal(t, second, final)
	require.NotEqual(t, first, final)
	require.Len(t, final, 10)
	require.True(t,
		assertSame(final, decoded(t, slow)) || assertSame(final, decoded(t, fast)),
		"final state must be one complete response: %+v", final)
}

func assertSame(a, b []quote.CurrencyQuote) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHolder_StateTracksInFlightFetch(t *testing.T) {
	t.Parallel()

	f := newFetcher(t)
	body := page(t, "coin", 1)
	release := make(chan struct{})
	f.EXPECT().Fetch(gomock.Any()).DoAndReturn(func(context.Context) ([]byte, error) {
		<-release
		return body, nil
	})
	hs := newHarness(t, f)

	hs.holder.LoadData()
	require.Equal(t, presenter.Loading, hs.holder.State())
	require.Equal(t, "loading", hs.holder.State().String())

	close(release)
	recv(t, hs.quotes)
	require.Eventually(t, func() bool { return hs.holder.State() == presenter.Idle }, time.Second, 5*time.Millisecond)
}

func TestHolder_CloseCancelsAndIgnoresLateResults(t *testing.T) {
	t.Parallel()

	// Arrange: a fetch that only ends when its context does
	f := newFetcher(t)
	started := make(chan struct{})
	f.EXPECT().Fetch(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]byte, error) {
		close(started)
		<-ctx.Done()
		return nil, provider.Network(ctx.Err())
	}).Times(1)
	hs := newHarness(t, f)

	hs.holder.LoadData()
	<-started

	// Act
	hs.holder.Close()
	hs.holder.Close()

	// Assert: the goroutine winds down without notifying anyone
	require.Eventually(t, func() bool { return hs.holder.State() == presenter.Idle }, time.Second, 5*time.Millisecond)
	hs.onUI(func() {})
	require.Empty(t, hs.quotes)
	require.Empty(t, hs.errs)

	// Assert: loads after Close never reach the fetcher
	hs.holder.LoadData()
	require.Equal(t, presenter.Idle, hs.holder.State())
}

func TestHolder_ResultPostedAfterCloseIsDropped(t *testing.T) {
	t.Parallel()

	// Arrange: a dispatcher that holds posted functions until told to run them
	f := newFetcher(t)
	f.EXPECT().Fetch(gomock.Any()).Return(page(t, "coin", 2), nil)

	posted := make(chan func(), 1)
	h := presenter.New(f, quote.Decoder{}, dispatch.Func(func(fn func()) { posted <- fn }))
	notified := false
	h.Subscribe(func([]quote.CurrencyQuote) { notified = true })

	// Act: the result is ready, but the session ends before it is applied
	h.LoadData()
	apply := recv(t, posted)
	h.Close()
	apply()

	// Assert
	require.False(t, notified)
	require.Empty(t, h.Quotes())
}

func TestHolder_Unsubscribe(t *testing.T) {
	t.Parallel()

	f := newFetcher(t)
	f.EXPECT().Fetch(gomock.Any()).Return(page(t, "coin", 1), nil)
	hs := newHarness(t, f)

	extra := make(chan []quote.CurrencyQuote, 1)
	unsubscribe := hs.holder.Subscribe(func(q []quote.CurrencyQuote) { extra <- q })
	unsubscribe()
	unsubscribe()

	hs.holder.LoadData()
	recv(t, hs.quotes)
	hs.onUI(func() {})
	require.Empty(t, extra)
}

func TestHolder_LogsFailuresWithFetchID(t *testing.T) {
	t.Parallel()

	f := newFetcher(t)
	f.EXPECT().Fetch(gomock.Any()).Return(nil, provider.Status(429))

	var buf bytes.Buffer
	hs := newHarness(t, f, presenter.WithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel)))

	hs.holder.LoadData()
	recv(t, hs.errs)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "fetch", entry["stage"])
	require.Equal(t, "mock", entry["source"])
	require.Len(t, entry["fetch_id"], 26)
	require.Contains(t, entry["error"], "429")
}
