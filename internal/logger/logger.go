package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// The logger instance; a no-op until Init is called
	base  = zap.NewNop()
	sugar = base.Sugar()
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init initializes the logger. level is one of debug, info, warn or error;
// development switches to a human readable console encoder.
func Init(levelName string, development bool) error {
	lvl, err := ParseLevel(levelName)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = level

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	base = l
	sugar = l.Sugar()

	Debug("Debug logging enabled")
	return nil
}

// ParseLevel converts a level name into a zap level
func ParseLevel(name string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return lvl, nil
}

// Debug logs a debug message if debug logging is enabled
func Debug(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

// Warn logs a warning
func Warn(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

// With returns a structured logger carrying the given key/value pairs
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return base.WithOptions(zap.AddCallerSkip(-1)).Sugar().With(keysAndValues...)
}

// IsDebugEnabled returns whether debug logging is enabled
func IsDebugEnabled() bool {
	return level.Enabled(zapcore.DebugLevel)
}

// Sync flushes buffered log entries
func Sync() {
	_ = base.Sync()
}

// SetLogger replaces the package logger, mainly for tests
func SetLogger(l *zap.Logger) {
	base = l.WithOptions(zap.AddCallerSkip(1))
	sugar = base.Sugar()
}
