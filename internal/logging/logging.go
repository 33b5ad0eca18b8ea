package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, encoding and destinations for the process logger.
type Config struct {
	Level  string // zerolog level name; unparseable values fall back to info
	Format string // "console" (default) or "json"
	File   string // optional append-mode log file
	// Quiet drops the stderr writer. Used while a full-screen TUI owns the terminal.
	Quiet bool
}

// Logger bundles the configured logger with the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New builds a logger from cfg writing to stderr. See NewWithWriter.
func New(cfg Config) (*Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter builds a logger writing to w (unless cfg.Quiet) and to cfg.File
// when set. The file is created with 0600 and its directory with 0700.
func NewWithWriter(cfg Config, w io.Writer) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if !cfg.Quiet && w != nil {
		if cfg.Format == "json" {
			writers = append(writers, w)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
		}
	}

	var file *os.File
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		file, err = os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, file)
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	l := zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return &Logger{Logger: l, file: file}, nil
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Component returns a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// DefaultFile is where interactive sessions log when no file is configured.
func DefaultFile() string {
	return filepath.Join(os.TempDir(), "cryptoquotes.log")
}
