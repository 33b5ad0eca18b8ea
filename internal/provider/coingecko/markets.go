package coingecko

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"cryptoquotes/internal/provider"
)

// The markets request is fixed: the top page of USD quotes by market cap.
const (
	VSCurrency = "usd"
	Order      = "market_cap_desc"
	PerPage    = 10
	Page       = 1
)

// MarketsURL composes {base}/coins/markets with the fixed query. A base URL that
// is not an absolute http(s) URL yields a provider.KindInvalidURL error.
func (c *Client) MarketsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", provider.InvalidURL(err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", provider.InvalidURL(fmt.Errorf("base url %q is not an absolute http(s) url", c.baseURL))
	}

	u = u.JoinPath("coins", "markets")
	query := url.Values{}
	query.Set("vs_currency", VSCurrency)
	query.Set("order", Order)
	query.Set("per_page", strconv.Itoa(PerPage))
	query.Set("page", strconv.Itoa(Page))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Fetch performs exactly one GET against the markets endpoint and returns the
// raw body. It never retries.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	target, err := c.MarketsURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, provider.InvalidURL(fmt.Errorf("creating request: %w", err))
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.Network(fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, provider.Status(res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, provider.Network(fmt.Errorf("reading response: %w", err))
	}
	if len(body) == 0 {
		return nil, provider.EmptyBody()
	}
	return body, nil
}
