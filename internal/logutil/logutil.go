package logutil

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

var (
	logger  = newLogger(os.Stderr)
	verbose bool
	mu      sync.RWMutex
)

func newLogger(w io.Writer) *log.Logger {
	l := log.NewWithOptions(w, log.Options{Prefix: "medium-mcp", ReportTimestamp: true, Level: log.InfoLevel})
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		l.SetFormatter(log.LogfmtFormatter)
	}
	return l
}

// SetVerbose adjusts the global logging level.
func SetVerbose(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = enable
	if enable {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}

// Verbose reports whether verbose logging is enabled.
func Verbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// With returns a child logger carrying the given key/value pairs.
func With(keyvals ...any) *log.Logger {
	return current().With(keyvals...)
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debugf logs a debug message when verbose logging is enabled.
func Debugf(format string, args ...any) {
	current().Debugf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	current().Infof(format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...any) {
	current().Warnf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...any) {
	current().Errorf(format, args...)
}
