// Package logger provides opinionated logging capabilities for farmguru
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where and how verbosely to log.
type Options struct {
	Debug bool

	// Output receives log lines. Defaults to stdout.
	Output io.Writer

	// Color enables the colored level encoder. Disable it for files.
	Color bool
}

// NewLogger creates a colored console logger on stdout.
func NewLogger(debug bool) *zap.Logger {
	return New(Options{Debug: debug, Color: true})
}

// New creates a console logger writing to opts.Output, or stdout when unset.
func New(opts Options) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if opts.Color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Set log level
	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(out),
		level,
	)

	return zap.New(core, zap.AddCaller())
}

// NewFileLogger logs to path, appending. An empty path discards everything,
// which keeps full screen interfaces from being drawn over. The returned
// close func flushes and closes the file.
func NewFileLogger(path string, debug bool) (*zap.Logger, func() error, error) {
	if path == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("could not create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open log file: %w", err)
	}

	l := New(Options{Debug: debug, Output: f})
	closer := func() error {
		_ = l.Sync()
		return f.Close()
	}
	return l, closer, nil
}
