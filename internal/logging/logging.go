// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dshills/reflex-emulator/internal/config"
)

// Options holds logger settings.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	ReportCaller    bool
	Prefix          string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Level:     log.InfoLevel,
		Formatter: log.TextFormatter,
		Prefix:    "emulator",
	}
}

// OptionsFrom converts the log section of the bootstrap configuration.
func OptionsFrom(cfg config.LogConfig) (Options, error) {
	opts := DefaultOptions()

	if cfg.Level != "" {
		lvl, err := log.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return Options{}, fmt.Errorf("log level: %w", err)
		}
		opts.Level = lvl
	}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		opts.Formatter = log.TextFormatter
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		return Options{}, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	opts.Prefix = cfg.Prefix
	opts.ReportTimestamp = cfg.Timestamp
	return opts, nil
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		Prefix:          opts.Prefix,
	})
}

// FromConfig creates a logger writing to w as configured by cfg.
func FromConfig(w io.Writer, cfg config.LogConfig) (*log.Logger, error) {
	opts, err := OptionsFrom(cfg)
	if err != nil {
		return nil, err
	}
	return New(w, opts), nil
}

// Discard returns a logger that writes nothing.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
