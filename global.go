package justlog

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Process-wide state: the default logger, plus a registry of named
// configuration instances so independent subsystems can each run their
// own. Reset exists so tests can start from a clean slate.
var (
	defaultLogger atomic.Pointer[Logger]
	bootstrapMu   sync.Mutex

	registryMu sync.Mutex
	registry   = make(map[string]*Logger)
)

// Setup builds a logger from config, runs retention cleanup over any
// historical backups, registers the logger under config.Name, and
// installs it as the package default.
//
// Calling Setup again swaps the whole logger atomically; callers can
// never observe a half-updated sink set. The previous default stays
// usable by anyone still holding it.
func Setup(config Config) (*Logger, error) {
	logger, err := New(config)
	if err != nil {
		return nil, err
	}

	if err := logger.CleanupOldLogs(); err != nil {
		logger.handleError(fmt.Errorf("log cleanup failed: %w", err))
	}

	registryMu.Lock()
	registry[logger.Name()] = logger
	registryMu.Unlock()

	defaultLogger.Store(logger)
	return logger, nil
}

// Default returns the package-level logger. If Setup has never been
// called it lazily installs a minimal stderr-only logger at INFO,
// exactly once, so package-level calls never fail with "not
// configured".
func Default() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	bootstrapMu.Lock()
	defer bootstrapMu.Unlock()
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newBootstrap()
	defaultLogger.Store(l)
	return l
}

// Get returns the logger registered under name by Setup.
func Get(name string) (*Logger, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	l, ok := registry[name]
	return l, ok
}

// Reset closes every registered logger and clears all package state.
// Intended for tests.
func Reset() {
	registryMu.Lock()
	for name, l := range registry {
		l.Close()
		delete(registry, name)
	}
	registryMu.Unlock()

	if l := defaultLogger.Swap(nil); l != nil {
		l.Close()
	}
	panicLogged.Store(false)
}

// Debug logs through the default logger.
func Debug(message string, args ...interface{}) { Default().Debug(message, args...) }

// Info logs through the default logger.
func Info(message string, args ...interface{}) { Default().Info(message, args...) }

// Warning logs through the default logger.
func Warning(message string, args ...interface{}) { Default().Warning(message, args...) }

// Error logs through the default logger.
func Error(message string, args ...interface{}) { Default().Error(message, args...) }

// Critical logs through the default logger.
func Critical(message string, args ...interface{}) { Default().Critical(message, args...) }

func Debugf(format string, args ...interface{})    { Default().Debugf(format, args...) }
func Infof(format string, args ...interface{})     { Default().Infof(format, args...) }
func Warningf(format string, args ...interface{})  { Default().Warningf(format, args...) }
func Errorf(format string, args ...interface{})    { Default().Errorf(format, args...) }
func Criticalf(format string, args ...interface{}) { Default().Criticalf(format, args...) }

func DebugWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	Default().DebugWithFields(fields, message, args...)
}

func InfoWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	Default().InfoWithFields(fields, message, args...)
}

func WarningWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	Default().WarningWithFields(fields, message, args...)
}

func ErrorWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	Default().ErrorWithFields(fields, message, args...)
}

func CriticalWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	Default().CriticalWithFields(fields, message, args...)
}
