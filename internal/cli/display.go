package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cryptoquotes/internal/config"
	"cryptoquotes/internal/dispatch"
	"cryptoquotes/internal/logging"
	"cryptoquotes/internal/quote"
	"cryptoquotes/internal/tui"
)

func runDisplay(cmd *cobra.Command, flags rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	out := cmd.OutOrStdout()
	interactive := !flags.plain && !flags.jsonOut && isTerminal(out)

	lg, err := setupLogging(cfg, cmd.ErrOrStderr(), interactive)
	if err != nil {
		return err
	}
	defer lg.Close()

	cliLog := logging.Component(lg.Logger, "cli")
	cliLog.Debug().
		Str("base_url", cfg.Upstream.BaseURL).
		Str("decode_mode", cfg.Decode.Mode).
		Bool("interactive", interactive).
		Msg("command started")

	if interactive {
		return runInteractive(cmd.Context(), cfg, lg.Logger)
	}

	quotes, err := loadOnce(cmd.Context(), cfg, lg.Logger)
	if err != nil {
		return err
	}
	if flags.jsonOut {
		return renderJSON(out, quotes)
	}
	return renderPlain(out, quotes)
}

func runInteractive(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	d := tui.NewProgramDispatcher()
	h := newHolder(cfg, d, log)
	defer h.Close()

	p := tea.NewProgram(tui.NewModel(h), tea.WithAltScreen(), tea.WithContext(ctx))
	d.Attach(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interactive TUI: %w", err)
	}
	return nil
}

// loadOnce performs a single LoadData and waits for its outcome.
func loadOnce(ctx context.Context, cfg config.Config, log zerolog.Logger) ([]quote.CurrencyQuote, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := dispatch.NewLoop(0)
	go loop.Run(ctx)
	defer loop.Stop()

	h := newHolder(cfg, loop, log)
	defer h.Close()

	type result struct {
		quotes []quote.CurrencyQuote
		err    error
	}
	done := make(chan result, 1)
	h.Subscribe(func(q []quote.CurrencyQuote) { done <- result{quotes: q} })
	h.SubscribeErrors(func(err error) { done <- result{err: err} })

	h.LoadData()
	select {
	case r := <-done:
		return r.quotes, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// renderPlain writes one block per quote: the title, its three detail lines and
// a blank separator.
func renderPlain(w io.Writer, quotes []quote.CurrencyQuote) error {
	var b strings.Builder
	for _, q := range quotes {
		for _, line := range q.Lines() {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderJSON(w io.Writer, quotes []quote.CurrencyQuote) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(quotes)
}
