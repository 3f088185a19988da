// Package logging builds the program's slog logger: terse text on stderr
// and, optionally, JSON lines in a size-rotated log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	MaxSizeMB  = 5
	MaxBackups = 3
	MaxAgeDays = 28
)

// Options configures New.
type Options struct {
	Level  string    // debug, info, warn or error; default warn
	File   string    // optional log file path
	Stderr io.Writer // defaults to os.Stderr
}

// ParseLevel maps a level name to a slog.Level. Unknown names give warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// New returns a logger and a closer for its log file. The closer is never
// nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	level := ParseLevel(opts.Level)

	console := slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Timestamps are noise on an interactive terminal.
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	if opts.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return slog.New(console), nopCloser{}, err
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
	}
	// The file records everything from info up, whatever the console shows.
	fileLevel := min(level, slog.LevelInfo)
	jsonHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: fileLevel})

	return slog.New(slogmulti.Fanout(console, jsonHandler)), file, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
