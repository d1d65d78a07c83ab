// Package justlog is a logging convenience layer: one call to Setup
// wires a size-rotating file sink, an optional stderr mirror, an
// optional structured store, and a retention cleanup pass behind a
// single dispatch facade, and package-level calls work even before
// Setup runs.
//
// Key features:
// - Severity levels DEBUG, INFO, WARNING, ERROR, CRITICAL with per-sink thresholds
// - Size-based rotation into fixed .1 .. .N backup slots, optional gzip compression
// - Day-based retention cleanup of backups and of old lines in the active file
// - Plain text or JSON output; structured extras rendered beneath the message
// - Pluggable structured store sink (see the sqlitestore subpackage)
// - Read-only HTTP log viewer (see the logview subpackage)
// - Crash hook that logs a panic at CRITICAL before the process dies
// - Per-sink failure isolation: log calls never fail the caller
// - Optional rate limiting and environment variable overrides
//
// Getting started:
//
//	package main
//
//	import "github.com/justlog/justlog"
//
//	func main() {
//	    config := justlog.DefaultConfig()
//	    config.FilePath = "logs/app.log"
//	    config.StderrLevel = justlog.WARNING
//	    if _, err := justlog.Setup(config); err != nil {
//	        panic(err)
//	    }
//	    defer justlog.LogPanic()
//
//	    justlog.Info("application starting")
//	    justlog.InfoWithFields(map[string]interface{}{"user": "alice"}, "login")
//	}
//
// Before Setup is called, package-level calls go to a lazily installed
// stderr-only logger at INFO, so logging never crashes an application
// that forgot (or chose not) to configure it.
//
// Multiple independent configurations can coexist in one process: give
// each Config a distinct Name, call Setup for each, and retrieve them
// with Get. The last Setup wins the package-level default.
//
// Structured storage is enabled by assigning a Sink to Config.Store.
// The sqlitestore subpackage provides a SQLite-backed implementation
// whose query surface plugs directly into the logview HTTP viewer:
//
//	store, _ := sqlitestore.Open("logs/app.db")
//	config.Store = store
//	config.StoreLevel = justlog.INFO
//	...
//	http.Handle("/lg/", logview.Handler(store))
//
// Concurrency: every logging call is synchronous and blocks for the
// duration of its I/O. Writes are serialized by the file sink; nothing
// above it takes a lock on the hot path. Pointing two processes at the
// same log file is not coordinated and not supported.
package justlog
