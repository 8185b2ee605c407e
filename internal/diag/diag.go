// Package diag provides the diagnostic byte sink the core consumes for
// lifecycle tracing: error output always reaches the sink, debug output
// only when verbose is enabled.
package diag

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus.Logger gated on a verbose flag.
type Logger struct {
	log     *logrus.Logger
	verbose bool
}

// New creates a Logger writing to stderr. Debug-level messages are
// suppressed unless verbose is true.
func New(verbose bool) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return &Logger{log: l, verbose: verbose}
}

// Verbose reports whether debug-level tracing is enabled.
func (l *Logger) Verbose() bool { return l.verbose }

// Debugf logs connection/task lifecycle detail. No-op unless verbose.
func (l *Logger) Debugf(format string, args ...any) {
	l.log.Debugf(format, args...)
}

// Errorf logs a recoverable per-connection or per-reactor failure.
func (l *Logger) Errorf(format string, args ...any) {
	l.log.Errorf(format, args...)
}

// Fatalf logs a startup failure and the caller is expected to exit.
func (l *Logger) Fatalf(format string, args ...any) {
	l.log.Errorf(format, args...)
}
