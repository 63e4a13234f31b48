// Package diag formats the daemon's own diagnostic messages and sends them
// through an Emitter.
//
// A Logger starts out on the shared channel, the same socket producers use.
// A process that owns the log file switches it, once, to write directly to
// that file so its diagnostics never loop back through the socket it serves.
package diag

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jeffrom/logrelay/config"
	"github.com/jeffrom/logrelay/internal"
)

// ErrAlreadyRedirected is returned when a Logger is redirected a second time.
var ErrAlreadyRedirected = errors.New("diagnostics have already been redirected")

// ErrNotDirect is returned when a Logger is redirected to an emitter that
// still uses the shared channel.
var ErrNotDirect = errors.New("diagnostics can only be redirected to a direct writer")

const timeFormat = "Jan _2 15:04:05.000"

// Logger writes diagnostic lines through its current Emitter.
type Logger struct {
	conf     *config.Config
	hostname string
	pid      int

	mu         sync.Mutex
	emitter    Emitter
	redirected bool
	stderr     io.Writer
	now        func() time.Time
}

// New returns a Logger that emits through shared until it is redirected.
func New(conf *config.Config, shared Emitter) *Logger {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	return &Logger{
		conf:     conf,
		hostname: hostname,
		pid:      os.Getpid(),
		emitter:  shared,
		stderr:   os.Stderr,
		now:      time.Now,
	}
}

// Redirect switches the Logger to e for the rest of its lifetime. It can be
// called once, and only with an emitter that bypasses the shared channel.
func (l *Logger) Redirect(e Emitter) error {
	if e == nil || e.Mode() != ModeDirect {
		return ErrNotDirect
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.redirected {
		return ErrAlreadyRedirected
	}
	l.emitter = e
	l.redirected = true
	return nil
}

// Redirected reports whether the Logger writes directly to the log file.
func (l *Logger) Redirected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.redirected
}

// Mode returns the mode of the current emitter.
func (l *Logger) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.emitter == nil {
		return ModeShared
	}
	return l.emitter.Mode()
}

// Debugf logs a message only when the configuration is verbose. The caller's
// file and line are included.
func (l *Logger) Debugf(s string, args ...interface{}) {
	if !l.conf.Verbose {
		return
	}
	file, line := internal.FileLine(1)
	l.emit(fmt.Sprintf("debug: %s:%d: ", file, line), s, args...)
}

// Logf logs an informational message.
func (l *Logger) Logf(s string, args ...interface{}) {
	l.emit("", s, args...)
}

// Warnf logs a warning.
func (l *Logger) Warnf(s string, args ...interface{}) {
	l.emit("warning: ", s, args...)
}

// Errorf logs an error.
func (l *Logger) Errorf(s string, args ...interface{}) {
	l.emit("error: ", s, args...)
}

// Fatalf logs a fatal error. The caller is responsible for exiting.
func (l *Logger) Fatalf(s string, args ...interface{}) {
	l.emit("fatal: ", s, args...)
}

func (l *Logger) emit(level string, s string, args ...interface{}) {
	line := l.format(level, fmt.Sprintf(s, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.emitter == nil {
		l.writeStderr(line)
		return
	}
	if err := l.emitter.Emit(line); err != nil {
		l.writeStderr(line)
		l.writeStderr(l.format("warning: ", fmt.Sprintf("diagnostic emitter failed: %+v", err)))
	}
}

func (l *Logger) format(level string, msg string) []byte {
	b := make([]byte, 0, len(msg)+64)
	b = l.now().AppendFormat(b, timeFormat)
	b = append(b, ' ')
	b = append(b, l.hostname...)
	b = append(b, ' ')
	b = append(b, l.conf.ProcessName...)
	b = append(b, fmt.Sprintf("[%d]: ", l.pid)...)
	b = append(b, level...)
	b = append(b, msg...)
	if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	return b
}

func (l *Logger) writeStderr(line []byte) {
	// nothing useful can be done if stderr is gone too.
	_, _ = l.stderr.Write(line)
}
