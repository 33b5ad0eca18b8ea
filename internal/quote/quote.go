package quote

import (
	"fmt"
	"strings"
)

// CurrencyQuote is one coin's market snapshot as returned by /coins/markets.
// Prices are in the request's vs_currency (always USD here).
type CurrencyQuote struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
	TotalVolume  float64 `json:"total_volume"`
}

// Title renders "Bitcoin (BTC)".
func (q CurrencyQuote) Title() string {
	return fmt.Sprintf("%s (%s)", q.Name, strings.ToUpper(q.Symbol))
}

func (q CurrencyQuote) PriceLine() string {
	return fmt.Sprintf("Price: %.2f USD", q.CurrentPrice)
}

func (q CurrencyQuote) MarketCapLine() string {
	return fmt.Sprintf("Market Cap: %.0f USD", q.MarketCap)
}

func (q CurrencyQuote) VolumeLine() string {
	return fmt.Sprintf("Total Volume: %.0f USD", q.TotalVolume)
}

// Lines returns the title followed by the three detail lines, in display order.
func (q CurrencyQuote) Lines() []string {
	return []string{q.Title(), q.PriceLine(), q.MarketCapLine(), q.VolumeLine()}
}
