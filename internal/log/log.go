// Package log provides context-aware logging for steamfix.
package log

import (
	"context"
	"fmt"
	"io"
)

type ctxKey struct{}

// Logger writes diagnostic output. Core components (scanner, fixer,
// backup manager) receive a Logger explicitly through their constructors;
// the command layer additionally carries one on the context.
type Logger struct {
	out     io.Writer
	verbose bool
	quiet   bool
}

// New creates a new logger. When quiet is set, only Errorf output is
// written; when verbose is set, Debugf output is included.
func New(out io.Writer, verbose, quiet bool) *Logger {
	return &Logger{out: out, verbose: verbose, quiet: quiet}
}

// Discard returns a logger that writes nothing. Useful as a default in
// tests and for callers that don't care about diagnostics.
func Discard() *Logger {
	return &Logger{out: io.Discard, quiet: true}
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context.
// Returns a no-op logger if none is attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Discard()
}

// Printf writes formatted output.
func (l *Logger) Printf(format string, args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintf(l.out, format, args...)
}

// Println writes a line of output.
func (l *Logger) Println(args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintln(l.out, args...)
}

// Debugf writes formatted output only when verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if l.verbose && !l.quiet {
		fmt.Fprintf(l.out, format, args...)
	}
}

// Errorf writes formatted output even in quiet mode.
func (l *Logger) Errorf(format string, args ...any) {
	fmt.Fprintf(l.out, format, args...)
}

// Verbose returns true if verbose mode is enabled.
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Writer returns the underlying writer.
func (l *Logger) Writer() io.Writer {
	return l.out
}
