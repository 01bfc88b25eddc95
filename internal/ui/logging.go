package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Logger prints leveled messages. Info goes to Out, warnings and errors to
// Err so that command output stays pipeable.
type Logger struct {
	Debug bool
	Out   io.Writer
	Err   io.Writer

	mu sync.Mutex
}

func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug, Out: os.Stdout, Err: os.Stderr}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Debug {
		l.print(l.Err, "[DEBUG] ", format, args)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.print(l.Out, "[INFO] ", format, args)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.print(l.Err, "[WARN] ", format, args)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.print(l.Err, "[ERROR] ", format, args)
}

func (l *Logger) print(w io.Writer, prefix, format string, args []any) {
	if w == nil {
		w = os.Stderr
	}

	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = io.WriteString(w, prefix+msg)
}
