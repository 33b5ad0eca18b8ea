// Package coalesce shares one upstream request among overlapping callers.
package coalesce

import (
	"context"

	"golang.org/x/sync/singleflight"

	"cryptoquotes/internal/provider"
)

// Fetcher collapses concurrent Fetch calls into a single call of F. Every caller
// that joins an in-flight request receives the same bytes or the same error.
//
// The shared call runs under the first caller's context; a later caller whose
// own context ends first stops waiting with a network FetchError but does not
// cancel the shared call.
type Fetcher struct {
	F  provider.Fetcher
	sf singleflight.Group
}

func (c *Fetcher) Name() string { return c.F.Name() }

func (c *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	ch := c.sf.DoChan(c.F.Name(), func() (any, error) {
		return c.F.Fetch(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, provider.Network(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}
