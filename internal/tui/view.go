package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cryptoquotes/internal/presenter"
	"cryptoquotes/internal/quote"
)

const (
	chromeHeight = 4 // header, blank line, status, help
	blockHeight  = 5 // four lines per record plus a separator
)

// View renders the current view (Bubble Tea interface).
func (m Model) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateLoading:
		return m.renderLoadingView()
	default:
		return m.renderListView()
	}
}

func (m Model) renderLoadingView() string {
	sections := []string{
		HeaderStyle.Render("Top coins by market cap"),
		"",
	}
	if m.err != nil {
		sections = append(sections,
			ErrorStyle.Render("Error: "+m.err.Error()),
			SubtleStyle.Render("Press 'r' to retry, 'q' to quit"),
		)
	} else {
		sections = append(sections, m.spinner.View()+" Loading quotes...")
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderListView() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Top coins by market cap"))
	b.WriteString("\n\n")

	if len(m.quotes) == 0 {
		b.WriteString(SubtleStyle.Render("No quotes."))
		b.WriteString("\n")
	}
	end := min(m.offset+m.visibleCount(), len(m.quotes))
	for _, q := range m.quotes[m.offset:end] {
		b.WriteString(renderQuote(q))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderQuote renders one record block: the title then its three detail lines.
func renderQuote(q quote.CurrencyQuote) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(q.Title()),
		ValueStyle.Render(q.PriceLine()),
		ValueStyle.Render(q.MarketCapLine()),
		ValueStyle.Render(q.VolumeLine()),
	) + "\n"
}

func (m Model) renderStatusBar() string {
	var status string
	switch {
	case m.err != nil:
		status = ErrorStyle.Render("Refresh failed: " + m.err.Error())
	case m.src.State() == presenter.Loading:
		status = m.spinner.View() + " Refreshing..."
	case len(m.quotes) > 0:
		end := min(m.offset+m.visibleCount(), len(m.quotes))
		status = SubtleStyle.Render(fmt.Sprintf("%d-%d of %d", m.offset+1, end, len(m.quotes)))
	}
	help := SubtleStyle.Render("↑/↓ scroll | 'r' refresh | 'q' quit")
	return lipgloss.JoinVertical(lipgloss.Left, status, help)
}

// visibleCount is how many record blocks fit on screen, at least one.
func (m Model) visibleCount() int {
	return max(1, (m.height-chromeHeight)/blockHeight)
}
