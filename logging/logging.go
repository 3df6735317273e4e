// Package logging provides leveled debug logging for the Scan execution core.
// It mirrors the thin Printf-style wrapper the rest of the codebase uses,
// but owns its own backing logger since no shared logger package ships
// with this module.
package logging

import (
	"log"
	"os"
	"sync/atomic"
)

// Level identifies a logging severity.
type Level int32

const (
	// Debug is the most verbose level, used for per-iteration tracing.
	Debug Level = iota
	// Info is the level for coarse lifecycle messages; the scan driver
	// itself logs only at Debug.
	Info
	// Warn reports recoverable anomalies.
	Warn
)

var (
	current int32 = int32(Warn)
	std           = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// SetLevel changes the minimum level that is actually written out.
func SetLevel(l Level) {
	atomic.StoreInt32(&current, int32(l))
}

// Printf writes a formatted message at the given level if it is enabled.
func Printf(level Level, format string, args ...interface{}) {
	if int32(level) < atomic.LoadInt32(&current) {
		return
	}
	std.Printf(prefix(level)+format, args...)
}

// DebugLogf logs a debug-level message. Kept as its own entry point
// because iteration tracing in the driver is by far the hottest call site.
func DebugLogf(format string, args ...interface{}) {
	Printf(Debug, format, args...)
}

func prefix(level Level) string {
	switch level {
	case Debug:
		return "[DEBUG] "
	case Info:
		return "[INFO] "
	case Warn:
		return "[WARN] "
	default:
		return ""
	}
}
