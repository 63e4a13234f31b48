package logger

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/jeffrom/logrelay/config"
)

// ErrAlreadyOpen is returned when an open Writer is set up again. A Writer
// is opened at most once per process.
var ErrAlreadyOpen = errors.New("log file is already open")

// ErrClosed is returned when writing to a Writer that isn't open.
var ErrClosed = errors.New("log file is not open")

// LogWriter appends opaque records to the log.
type LogWriter interface {
	io.WriteCloser
	Flush() error
}

// Writer appends records to a single log file. It never seeks or truncates.
// Each record is appended with a single write call on the underlying file.
type Writer struct {
	conf   *config.Config
	path   string
	f      *os.File
	opened bool
}

// NewWriter returns a new instance of Writer for path. The file isn't opened
// until Setup is called.
func NewWriter(conf *config.Config, path string) *Writer {
	return &Writer{
		conf: conf,
		path: path,
	}
}

// Open returns a Writer for the configured maillog file, opened for
// appending.
func Open(conf *config.Config) (*Writer, error) {
	w := NewWriter(conf, conf.MaillogFile)
	if err := w.Setup(); err != nil {
		return nil, err
	}
	return w, nil
}

// Path returns the path of the log file.
func (w *Writer) Path() string {
	return w.path
}

// Write appends p to the log file as a single write. If the writer is
// configured to terminate records, a newline is added when p lacks one.
func (w *Writer) Write(p []byte) (int, error) {
	if w.f == nil {
		return 0, ErrClosed
	}

	b := p
	if w.conf.RecordNewline && (len(p) == 0 || p[len(p)-1] != '\n') {
		b = make([]byte, len(p)+1)
		copy(b, p)
		b[len(p)] = '\n'
	}

	n, err := w.f.Write(b)
	if err != nil {
		return min(n, len(p)), errors.Wrapf(err, "failed to append to %s", w.path)
	}
	return len(p), nil
}

// Flush implements LogWriter interface
func (w *Writer) Flush() error {
	if w.f == nil {
		return nil
	}
	return errors.Wrapf(w.f.Sync(), "failed to sync %s", w.path)
}

// Close implements LogWriter interface
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil
	return f.Close()
}

// Setup implements internal.LifecycleManager, opening the log file.
func (w *Writer) Setup() error {
	if w.opened {
		return ErrAlreadyOpen
	}
	if w.path == "" {
		return errors.New("no log file path configured")
	}

	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, w.conf.FileMode())
	if err != nil {
		return errors.Wrapf(err, "failed to open log file %s", w.path)
	}
	w.f = f
	w.opened = true
	return nil
}

// Shutdown implements internal.LifecycleManager interface
func (w *Writer) Shutdown() error {
	if err := w.Flush(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
