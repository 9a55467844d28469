// Package logging builds the zerolog logger used across updsync and carries
// it through context.Context.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	consoleTimeFormat = time.RFC3339
	dirPermMode       = 0o755
)

// Config holds logging configuration.
type Config struct {
	Level string // trace | debug | info | warn | error
	JSON  bool   // console output as JSON instead of the pretty writer
	Quiet bool   // disable console output below error level

	// File enables a rolling log file when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  1,
		MaxBackups: 5,
	}
}

// resilientMultiWriter writes to every writer even when one of them fails,
// so a broken console does not stop the file log and vice versa.
type resilientMultiWriter struct {
	level   zerolog.Level
	writers []levelWriter
}

type levelWriter struct {
	min zerolog.Level
	w   io.Writer
}

func (t resilientMultiWriter) Write(p []byte) (int, error) {
	for _, w := range t.writers {
		_, _ = w.w.Write(p)
	}
	return len(p), nil
}

func (t resilientMultiWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < t.level {
		return len(p), nil
	}
	for _, w := range t.writers {
		if level >= w.min {
			_, _ = w.w.Write(p)
		}
	}
	return len(p), nil
}

// New creates a zerolog logger from cfg. An unparsable level falls back to info.
func New(cfg Config) zerolog.Logger {
	level, levelErr := zerolog.ParseLevel(cfg.Level)
	if levelErr != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	consoleMin := zerolog.TraceLevel
	if cfg.Quiet {
		consoleMin = zerolog.ErrorLevel
	}

	writers := []levelWriter{{min: consoleMin, w: consoleWriter(cfg.JSON)}}

	var fileErr error
	if cfg.File != "" {
		fw, err := rollingWriter(cfg)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, levelWriter{min: zerolog.TraceLevel, w: fw})
		}
	}

	log := zerolog.New(resilientMultiWriter{level: level, writers: writers}).
		Level(level).
		With().
		Timestamp().
		Logger()

	if levelErr != nil && cfg.Level != "" {
		log.Error().Msgf("Failed to parse log level %q, using %q instead", cfg.Level, level)
	}
	if fileErr != nil {
		log.Error().Err(fileErr).Str("file", cfg.File).Msg("log file disabled")
	}
	return log
}

// NewWriterLogger creates a logger that writes JSON lines to w. Used by tests
// that need to assert on log output.
func NewWriterLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func consoleWriter(asJSON bool) io.Writer {
	if asJSON {
		return os.Stderr
	}
	return zerolog.ConsoleWriter{
		Out:        colorable.NewColorable(os.Stderr),
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
		TimeFormat: consoleTimeFormat,
	}
}

func rollingWriter(cfg Config) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), dirPermMode); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}, nil
}
