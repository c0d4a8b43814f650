package debug

import (
	"fmt"
	"log"
	"sync"
)

// Logger interface for debug logging.
// Provides debug output that can be enabled at runtime.
//
// Example usage:
//
//	logger := debug.GetLogger()
//	logger.Debugf("opening session for %s@%s", user, org)
//	logger.Debug("session closed")
type Logger interface {
	// Debugf logs a formatted debug message
	Debugf(format string, args ...any)
	// Debug logs debug arguments
	Debug(args ...any)
}

// nopLogger does nothing (used when debug mode is disabled).
type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Debug(...any)          {}

// stdLogger logs to standard logger with [DEBUG] prefix.
type stdLogger struct{}

func (stdLogger) Debugf(format string, args ...any) {
	log.Printf("[DEBUG] "+format, args...)
}

func (stdLogger) Debug(args ...any) {
	log.Printf("[DEBUG] %v", fmt.Sprint(args...))
}

var (
	mu sync.RWMutex
	l  Logger = nopLogger{}
)

// GetLogger returns the configured debug logger.
// Always use this function to access the logger instead of storing a reference.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return l
}

// InitLogger installs the debug logger when Active.Enabled is set.
// Safe to call more than once; later calls after enabling are no-ops.
//
// Example:
//
//	debug.Init()
//	debug.InitLogger()
//	debug.GetLogger().Debugf("server starting")
func InitLogger() {
	mu.Lock()
	defer mu.Unlock()

	if !Active.Enabled {
		return
	}
	if _, ok := l.(stdLogger); ok {
		return
	}
	l = stdLogger{}
	l.Debug("Debug logging enabled")
}

// SetLogger replaces the debug logger. Intended for tests that capture output.
func SetLogger(logger Logger) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = nopLogger{}
	}
	l = logger
}
