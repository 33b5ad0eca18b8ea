package quote

import "testing"

func TestCurrencyQuote_Lines(t *testing.T) {
	q := CurrencyQuote{
		ID:           "bitcoin",
		Symbol:       "btc",
		Name:         "Bitcoin",
		CurrentPrice: 67890.12,
		MarketCap:    1330000000000,
		TotalVolume:  25000000000,
	}

	want := []string{
		"Bitcoin (BTC)",
		"Price: 67890.12 USD",
		"Market Cap: 1330000000000 USD",
		"Total Volume: 25000000000 USD",
	}
	got := q.Lines()
	if len(got) != len(want) {
		t.Fatalf("want %d lines, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCurrencyQuote_Rounding(t *testing.T) {
	q := CurrencyQuote{Name: "Dogecoin", Symbol: "doge", CurrentPrice: 0.1587, MarketCap: 22999999999.6, TotalVolume: 0.4}

	if got := q.PriceLine(); got != "Price: 0.16 USD" {
		t.Fatalf("price: %q", got)
	}
	if got := q.MarketCapLine(); got != "Market Cap: 23000000000 USD" {
		t.Fatalf("market cap: %q", got)
	}
	if got := q.VolumeLine(); got != "Total Volume: 0 USD" {
		t.Fatalf("volume: %q", got)
	}
	if got := q.Title(); got != "Dogecoin (DOGE)" {
		t.Fatalf("title: %q", got)
	}
}
