// Package debug provides conditional debug logging for tq.
//
// Debug logging is enabled by setting the TQ_DEBUG environment variable:
//
//	TQ_DEBUG=1 tq --query 'pri & !done'
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops with zero overhead.
//
// Usage:
//
//	import "github.com/vanderheijden86/todoq/pkg/debug"
//
//	func load() {
//	    debug.Log("parsed %d tasks", len(tasks))
//	    debug.LogTiming("load", elapsed)
//	}
package debug

import (
	"io"
	"log"
	"os"
	"time"
)

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TQ_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[TQ_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[TQ_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output, e.g. to a file while the TUI owns the
// terminal, and returns the previous destination.
func SetOutput(w io.Writer) io.Writer {
	if logger == nil {
		logger = log.New(w, "[TQ_DEBUG] ", log.Ltime|log.Lmicroseconds)
		return os.Stderr
	}
	prev := logger.Writer()
	logger.SetOutput(w)
	return prev
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}
