package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"cryptoquotes/internal/quote"
)

type Upstream struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
}

type HTTP struct {
	TimeoutSec int    `json:"timeout_sec" yaml:"timeout_sec"` // 0 keeps the platform default
	UserAgent  string `json:"user_agent" yaml:"user_agent"`
}

type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file" yaml:"file"`
}

type Decode struct {
	Mode string `json:"mode" yaml:"mode"` // strict | lenient
}

// Fetch holds the optional gates placed in front of the upstream client.
// Zero values disable them.
type Fetch struct {
	MinIntervalSec       int  `json:"min_interval_sec" yaml:"min_interval_sec"`
	MaxRequestsPerMinute int  `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	Burst                int  `json:"burst" yaml:"burst"`
	Coalesce             bool `json:"coalesce" yaml:"coalesce"`
}

type Server struct {
	Addr string `json:"addr" yaml:"addr"`
}

type Config struct {
	Upstream Upstream `json:"upstream" yaml:"upstream"`
	HTTP     HTTP     `json:"http" yaml:"http"`
	Log      Log      `json:"log" yaml:"log"`
	Decode   Decode   `json:"decode" yaml:"decode"`
	Fetch    Fetch    `json:"fetch" yaml:"fetch"`
	Server   Server   `json:"server" yaml:"server"`
}

func Default() Config {
	return Config{
		Upstream: Upstream{BaseURL: "https://api.coingecko.com/api/v3"},
		HTTP:     HTTP{TimeoutSec: 0, UserAgent: "cryptoquotes/1.0"},
		Log:      Log{Level: "info", Format: "console"},
		Decode:   Decode{Mode: quote.ModeStrict.String()},
		Fetch:    Fetch{Burst: 1},
		Server:   Server{Addr: ":8080"},
	}
}

// Load reads config from path. If path is empty it tries config.json in the
// working directory; a missing file yields defaults. Files ending in .yaml or
// .yml are parsed as YAML, anything else as JSON. Environment variables are
// applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := unmarshal(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func unmarshal(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

// Validate rejects values that would otherwise fail later in less obvious ways.
func (c Config) Validate() error {
	if _, err := quote.ParseMode(c.Decode.Mode); err != nil {
		return fmt.Errorf("decode.mode: %w", err)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.HTTP.TimeoutSec < 0 {
		return fmt.Errorf("http.timeout_sec must be >= 0, got %d", c.HTTP.TimeoutSec)
	}
	if c.Fetch.MinIntervalSec < 0 || c.Fetch.MaxRequestsPerMinute < 0 {
		return errors.New("fetch limits must be >= 0")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CRYPTOQUOTES_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("CRYPTOQUOTES_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CRYPTOQUOTES_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CRYPTOQUOTES_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("CRYPTOQUOTES_DECODE_MODE"); v != "" {
		cfg.Decode.Mode = v
	}
	if v := os.Getenv("CRYPTOQUOTES_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"CRYPTOQUOTES_TIMEOUT_SEC", &cfg.HTTP.TimeoutSec},
		{"CRYPTOQUOTES_MIN_INTERVAL_SEC", &cfg.Fetch.MinIntervalSec},
		{"CRYPTOQUOTES_MAX_RPM", &cfg.Fetch.MaxRequestsPerMinute},
		{"CRYPTOQUOTES_BURST", &cfg.Fetch.Burst},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		x, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = x
	}
	if v := os.Getenv("CRYPTOQUOTES_COALESCE"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("CRYPTOQUOTES_COALESCE: %w", err)
		}
		cfg.Fetch.Coalesce = b
	}
	return nil
}

// parseBool accepts strconv.ParseBool spellings plus yes/no.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}
