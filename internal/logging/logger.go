// Package logging hands out named component loggers backed by a single
// shared zap logger. Components ask for a logger once at construction
// time; the root logger is swapped in at startup and defaults to a no-op
// so library code and tests never have to care about initialization order.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Component names used across the codebase.
const (
	ComponentPipeline   = "pipeline"
	ComponentPerception = "perception"
	ComponentCalendar   = "calendar"
	ComponentServer     = "server"
	ComponentSession    = "session"
	ComponentMetrics    = "metrics"
	ComponentConfig     = "config"
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Init builds and installs the process-wide root logger.
// Production config by default; debug enables development encoding and
// the debug level.
func Init(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	SetRoot(logger)
	return logger, nil
}

// SetRoot replaces the root logger. Tests use this with test loggers.
func SetRoot(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	root = logger
}

// For returns a logger named after the given component.
func For(component string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(component)
}

// Sync flushes the root logger. Safe to call on the no-op logger.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}
