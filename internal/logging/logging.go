// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects level, encoding and destination.
type Options struct {
	Level  string
	Format string // "console" or "json"
	File   string
	// Discard drops output when no File is set, for full-screen UIs.
	Discard bool
}

// Setup replaces log.Logger. The returned closer releases the log file, if any.
func Setup(opts Options, stderr io.Writer) (io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}

	var out io.Writer = stderr
	var closer io.Closer = nopCloser{}
	switch {
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file: %w", err)
		}
		out, closer = f, f
	case opts.Discard:
		out = io.Discard
	}

	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, NoColor: opts.File != ""}
	}

	log.Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
