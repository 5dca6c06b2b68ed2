// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RedactedValue replaces the value of sensitive attributes.
const RedactedValue = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"private_key": {},
	"key":         {},
	"password":    {},
	"passphrase":  {},
	"mnemonic":    {},
}

// Options controls Setup.
type Options struct {
	// Path is the JSON log file. Empty disables file logging.
	Path string
	// Level is one of debug, info, warn, error.
	Level string
	// Verbose adds human-readable debug output on Stderr.
	Verbose bool
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// Setup builds the logger, installs it as the slog default and returns a
// closer for the log file.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var handlers []slog.Handler
	var closer io.Closer = nopCloser{}

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		closer = file
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: redact,
		}))
	}

	if opts.Verbose {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		handlers = append(handlers, slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level:       slog.LevelDebug,
			ReplaceAttr: redact,
		}))
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = slog.NewTextHandler(io.Discard, nil)
	case 1:
		h = handlers[0]
	default:
		h = fanout(handlers)
	}

	logger := slog.New(h).With(slog.String("service", "omnes"))
	slog.SetDefault(logger)
	return logger, closer, nil
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// redact masks the values of sensitive keys.
func redact(_ []string, attr slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(attr.Key)]; ok {
		return slog.String(attr.Key, RedactedValue)
	}
	return attr
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
