package cli

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"cryptoquotes/internal/config"
	"cryptoquotes/internal/dispatch"
	"cryptoquotes/internal/httpx"
	"cryptoquotes/internal/logging"
	"cryptoquotes/internal/presenter"
	"cryptoquotes/internal/provider"
	"cryptoquotes/internal/provider/coalesce"
	"cryptoquotes/internal/provider/coingecko"
	"cryptoquotes/internal/provider/ratelimit"
	"cryptoquotes/internal/quote"
)

// loadConfig layers CLI flags over config.Load.
func loadConfig(flags rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	if flags.baseURL != "" {
		cfg.Upstream.BaseURL = flags.baseURL
	}
	if flags.lenient {
		cfg.Decode.Mode = quote.ModeLenient.String()
	}
	if flags.debug {
		cfg.Log.Level = zerolog.DebugLevel.String()
	}
	return cfg, nil
}

// setupLogging builds the process logger. An interactive session owns the
// terminal, so its logs go only to a file.
func setupLogging(cfg config.Config, stderr io.Writer, interactive bool) (*logging.Logger, error) {
	lc := logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}
	if interactive {
		lc.Quiet = true
		if lc.File == "" {
			lc.File = logging.DefaultFile()
		}
	}
	return logging.NewWithWriter(lc, stderr)
}

// newFetcher builds the CoinGecko client and wraps it with whichever gates cfg
// enables. A token bucket takes precedence over a minimum interval.
func newFetcher(cfg config.Config) provider.Fetcher {
	hc := httpx.New(time.Duration(cfg.HTTP.TimeoutSec) * time.Second)
	if cfg.HTTP.UserAgent != "" {
		hc.UserAgent = cfg.HTTP.UserAgent
	}

	var f provider.Fetcher = coingecko.NewClient(
		coingecko.WithBaseURL(cfg.Upstream.BaseURL),
		coingecko.WithHTTPClient(hc),
	)
	if cfg.Fetch.MaxRequestsPerMinute > 0 {
		f = &ratelimit.TokenBucketFetcher{F: f, TB: ratelimit.PerMinute(cfg.Fetch.MaxRequestsPerMinute, cfg.Fetch.Burst)}
	} else if cfg.Fetch.MinIntervalSec > 0 {
		f = &ratelimit.MinInterval{F: f, Interval: time.Duration(cfg.Fetch.MinIntervalSec) * time.Second}
	}
	if cfg.Fetch.Coalesce {
		f = &coalesce.Fetcher{F: f}
	}
	return f
}

func newDecoder(cfg config.Config, log zerolog.Logger) quote.Decoder {
	// cfg has been validated, so the mode parses.
	mode, _ := quote.ParseMode(cfg.Decode.Mode)
	return quote.Decoder{
		Mode: mode,
		OnSkip: func(err *quote.DecodeError) {
			log.Warn().
				Int("index", err.Index).
				Str("field", err.Field).
				Str("reason", err.Reason).
				Msg("skipping malformed record")
		},
	}
}

func newHolder(cfg config.Config, ui dispatch.Dispatcher, log zerolog.Logger) *presenter.Holder {
	return presenter.New(
		newFetcher(cfg),
		newDecoder(cfg, logging.Component(log, "decoder")),
		ui,
		presenter.WithLogger(logging.Component(log, "presenter")),
	)
}
