package justlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Logger is the dispatch proxy applications call to emit log records.
// Each call is filtered per sink (file, stderr, structured store, extra
// writers), formatted once, and delivered to every sink whose threshold
// it meets. A failure in one sink never prevents delivery to the
// others, and logging calls never return errors to the caller.
//
// All methods are safe for concurrent use. The logger itself takes no
// locks on the hot path beyond the file sink's internal write lock.
type Logger struct {
	config          Config
	timestampFormat string
	outputFormat    Format
	file            *fileSink
	fileLevel       atomic.Int32
	stderr          io.Writer
	stderrLevel     Level
	store           Sink
	storeLevel      Level
	outputsMu       sync.RWMutex
	outputs         []io.Writer
	limiter         *rate.Limiter
	errorHandler    func(error)
	fallback        io.Writer
	closed          atomic.Bool
}

// New builds a logger from config. Configuration problems (empty file
// path, unreachable directory, negative counts) are returned here,
// loudly and synchronously; nothing about a bad setup is deferred to
// log time.
func New(config Config) (*Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.normalize()
	if config.Store != nil && config.StoreLevel == Disabled {
		config.StoreLevel = config.FileLevel
	}

	file, err := newFileSink(config.FilePath, config.MaxBytes, config.BackupCount, config.CompressBackups)
	if err != nil {
		return nil, err
	}

	logger := &Logger{
		config:          config,
		timestampFormat: config.TimestampFormat,
		outputFormat:    config.Format,
		file:            file,
		stderr:          os.Stderr,
		stderrLevel:     config.StderrLevel,
		store:           config.Store,
		storeLevel:      config.StoreLevel,
		errorHandler:    config.ErrorHandler,
	}
	for _, w := range config.Outputs {
		if w != nil {
			logger.outputs = append(logger.outputs, w)
		}
	}
	if config.EnableFallback {
		logger.fallback = os.Stderr
	}
	if config.MaxLogRate > 0 {
		logger.limiter = rate.NewLimiter(rate.Limit(config.MaxLogRate), config.MaxLogRate)
	}
	logger.fileLevel.Store(int32(config.FileLevel))
	return logger, nil
}

// newBootstrap builds the minimal stderr-only logger installed lazily
// when package-level calls happen before Setup.
func newBootstrap() *Logger {
	logger := &Logger{
		config:          DefaultConfig(),
		timestampFormat: defaultTimestampFormat,
		stderr:          os.Stderr,
		stderrLevel:     INFO,
	}
	logger.fileLevel.Store(int32(Disabled))
	return logger
}

func (l *Logger) log(level Level, message string, args []interface{}, fields map[string]interface{}) {
	if l.closed.Load() {
		fmt.Fprintf(os.Stderr, "logger closed, dropping message: %s\n", message)
		return
	}
	if l.limiter != nil && !l.limiter.Allow() {
		return
	}

	entry := Entry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Args:    args,
		Fields:  fields,
	}

	// Formatted lazily: a call below every sink threshold costs no
	// rendering at all.
	var formatted []byte
	render := func() []byte {
		if formatted == nil {
			formatted = l.format(entry)
		}
		return formatted
	}

	fileLevel := Level(l.fileLevel.Load())
	if l.file != nil && meetsThreshold(level, fileLevel) {
		l.writeSink(l.file, render(), "file")
	}
	if l.stderr != nil && meetsThreshold(level, l.stderrLevel) {
		if _, err := l.stderr.Write(render()); err != nil && l.errorHandler != nil {
			l.errorHandler(fmt.Errorf("stderr sink write error: %w", err))
		}
	}

	l.outputsMu.RLock()
	outputs := l.outputs
	l.outputsMu.RUnlock()
	if len(outputs) > 0 && meetsThreshold(level, fileLevel) {
		for _, w := range outputs {
			l.writeSink(w, render(), "output")
		}
	}

	if l.store != nil && meetsThreshold(level, l.storeLevel) {
		if err := l.store.Emit(entry); err != nil {
			l.handleError(fmt.Errorf("store sink write error: %w", err))
		}
	}
}

func meetsThreshold(level, min Level) bool {
	return min != Disabled && level >= min
}

// writeSink delivers one formatted record to one sink, isolating any
// failure: the error goes to the handler and the record to the stderr
// fallback, so at least one human-visible trace survives a full disk.
func (l *Logger) writeSink(w io.Writer, formatted []byte, sink string) {
	if _, err := w.Write(formatted); err != nil {
		l.handleError(fmt.Errorf("%s sink write error: %w", sink, err))
		if l.fallback != nil {
			fmt.Fprintf(l.fallback, "FALLBACK LOG: %s", formatted)
		}
	}
}

func (l *Logger) handleError(err error) {
	if l.errorHandler != nil {
		l.errorHandler(err)
	} else if l.fallback != nil {
		fmt.Fprintf(l.fallback, "LOGGER ERROR: %v\n", err)
	}
}

// Name returns the configuration instance name.
func (l *Logger) Name() string {
	return l.config.Name
}

// FilePath returns the active log file path, or "" for a stderr-only
// bootstrap logger.
func (l *Logger) FilePath() string {
	if l.file == nil {
		return ""
	}
	return l.file.path
}

// SetLevel adjusts the file sink threshold at runtime.
func (l *Logger) SetLevel(level Level) {
	l.fileLevel.Store(int32(level))
}

// GetLevel returns the file sink threshold.
func (l *Logger) GetLevel() Level {
	return Level(l.fileLevel.Load())
}

// AddOutput registers an additional writer that receives every record
// meeting the file threshold.
func (l *Logger) AddOutput(output io.Writer) {
	if output == nil || l.closed.Load() {
		return
	}
	l.outputsMu.Lock()
	defer l.outputsMu.Unlock()
	l.outputs = append(append([]io.Writer(nil), l.outputs...), output)
}

// RemoveOutput unregisters a writer added with AddOutput.
func (l *Logger) RemoveOutput(output io.Writer) {
	l.outputsMu.Lock()
	defer l.outputsMu.Unlock()
	for i, w := range l.outputs {
		if w == output {
			outputs := append([]io.Writer(nil), l.outputs[:i]...)
			l.outputs = append(outputs, l.outputs[i+1:]...)
			return
		}
	}
}

// Rotate forces a rotation of the file sink regardless of size.
func (l *Logger) Rotate() error {
	if l.file == nil {
		return fmt.Errorf("no file sink configured")
	}
	return l.file.Rotate()
}

// Close closes the file sink. Records logged after Close are dropped
// with a note on stderr; Close is safe to call more than once.
func (l *Logger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (l *Logger) IsClosed() bool {
	return l.closed.Load()
}

// Debug logs a message at DEBUG. Positional args are rendered beneath
// the message line as structured extras.
func (l *Logger) Debug(message string, args ...interface{}) {
	l.log(DEBUG, message, args, nil)
}

// Info logs a message at INFO.
func (l *Logger) Info(message string, args ...interface{}) {
	l.log(INFO, message, args, nil)
}

// Warning logs a message at WARNING.
func (l *Logger) Warning(message string, args ...interface{}) {
	l.log(WARNING, message, args, nil)
}

// Error logs a message at ERROR.
func (l *Logger) Error(message string, args ...interface{}) {
	l.log(ERROR, message, args, nil)
}

// Critical logs a message at CRITICAL.
func (l *Logger) Critical(message string, args ...interface{}) {
	l.log(CRITICAL, message, args, nil)
}

// Debugf logs a printf-formatted message at DEBUG.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...), nil, nil)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...), nil, nil)
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	l.log(WARNING, fmt.Sprintf(format, args...), nil, nil)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, args...), nil, nil)
}

func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.log(CRITICAL, fmt.Sprintf(format, args...), nil, nil)
}

// DebugWithFields logs a message at DEBUG with named context values.
func (l *Logger) DebugWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	l.log(DEBUG, message, args, fields)
}

func (l *Logger) InfoWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	l.log(INFO, message, args, fields)
}

func (l *Logger) WarningWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	l.log(WARNING, message, args, fields)
}

func (l *Logger) ErrorWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	l.log(ERROR, message, args, fields)
}

func (l *Logger) CriticalWithFields(fields map[string]interface{}, message string, args ...interface{}) {
	l.log(CRITICAL, message, args, fields)
}
