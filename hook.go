package justlog

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

// panicLogged guards against the same panic being written more than
// once when LogPanic hooks are nested (for example when both main and a
// library installed one). The process is terminating by the time this
// matters, so one process-wide flag is enough.
var panicLogged atomic.Bool

// LogPanic is a deferrable crash hook. It recovers a panic unwinding
// through it, writes the panic value and stack trace at CRITICAL, and
// re-panics with the original value so the runtime's default crash
// behavior is unchanged: the traceback still prints and the process
// still exits non-zero.
//
//	func main() {
//	    defer justlog.LogPanic()
//	    ...
//	}
//
// Nested hooks log the panic only once.
func (l *Logger) LogPanic() {
	r := recover()
	if r == nil {
		return
	}
	if panicLogged.CompareAndSwap(false, true) {
		l.Critical(fmt.Sprintf("uncaught panic: %v, application will terminate.\n%s", r, debug.Stack()))
	}
	panic(r)
}

// LogPanic is the package-level form of [Logger.LogPanic], using the
// default logger.
func LogPanic() {
	r := recover()
	if r == nil {
		return
	}
	if panicLogged.CompareAndSwap(false, true) {
		Default().Critical(fmt.Sprintf("uncaught panic: %v, application will terminate.\n%s", r, debug.Stack()))
	}
	panic(r)
}

// Go runs fn on a new goroutine with the crash hook installed, so a
// panic in fn is logged before it kills the process.
func (l *Logger) Go(fn func()) {
	go func() {
		defer l.LogPanic()
		fn()
	}()
}
