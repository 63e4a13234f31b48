package logger

import (
	"bytes"
	"sync"

	"github.com/jeffrom/logrelay/config"
)

// MockWriter can be used for testing purposes. It records each write
// separately so tests can check record boundaries.
type MockWriter struct {
	conf    *config.Config
	mu      sync.Mutex
	buf     bytes.Buffer
	writes  [][]byte
	err     error
	blockC  chan struct{}
	closed  bool
	flushes int
}

// NewMockWriter returns an instance of MockWriter
func NewMockWriter(conf *config.Config) *MockWriter {
	return &MockWriter{conf: conf}
}

func (w *MockWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	blockC := w.blockC
	err := w.err
	w.mu.Unlock()

	if blockC != nil {
		<-blockC
	}
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, append([]byte(nil), p...))
	return w.buf.Write(p)
}

// Flush implements LogWriter
func (w *MockWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes++
	return nil
}

// Close implements LogWriter
func (w *MockWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// SetError makes subsequent writes fail with err.
func (w *MockWriter) SetError(err error) *MockWriter {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
	return w
}

// Block makes subsequent writes wait until the returned function is called.
func (w *MockWriter) Block() func() {
	c := make(chan struct{})
	w.mu.Lock()
	w.blockC = c
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			w.blockC = nil
			w.mu.Unlock()
			close(c)
		})
	}
}

// Bytes returns everything written so far.
func (w *MockWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf.Bytes()...)
}

// Writes returns each successful write, in order.
func (w *MockWriter) Writes() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	writes := make([][]byte, len(w.writes))
	copy(writes, w.writes)
	return writes
}

// Closed reports whether Close has been called.
func (w *MockWriter) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
