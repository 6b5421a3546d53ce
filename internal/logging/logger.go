//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package logging provides structured logging for pgedge-ecomdw.
//
// Every record goes to stderr and, when a run log is configured, is also
// appended to that file. The run log is never truncated.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

var (
	runLogMu sync.Mutex
	runLog   *os.File
)

// Config holds logging configuration.
type Config struct {
	Level      string
	Pretty     bool
	TimeFormat string

	// File is the append-only run log. Empty disables it.
	File string

	// Console is the interactive output; defaults to stderr.
	Console io.Writer
}

// DefaultConfig returns default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Pretty:     true,
		TimeFormat: time.RFC3339,
	}
}

// Init initializes the global logger with the given configuration.
func Init(cfg Config) error {
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	var output io.Writer = console
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: timeFormat,
		}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	runLogMu.Lock()
	defer runLogMu.Unlock()

	if runLog != nil {
		_ = runLog.Close()
		runLog = nil
	}

	var openErr error
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			openErr = fmt.Errorf("failed to open run log %s: %w", cfg.File, err)
		} else {
			runLog = f
			output = zerolog.MultiLevelWriter(output, zerolog.ConsoleWriter{
				Out:        f,
				NoColor:    true,
				TimeFormat: "2006-01-02 15:04:05",
			})
		}
	}

	Logger = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return openErr
}

// Close flushes and closes the run log, if one is open.
func Close() error {
	runLogMu.Lock()
	defer runLogMu.Unlock()

	if runLog == nil {
		return nil
	}
	err := runLog.Close()
	runLog = nil
	return err
}

// Debug returns a debug level event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info returns an info level event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn returns a warning level event.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error returns an error level event.
func Error() *zerolog.Event {
	return Logger.Error()
}

func init() {
	_ = Init(DefaultConfig())
}
