package diag

import (
	"io"
	"sync"
)

// Mode tells whether an emitter uses the shared channel or writes directly
// to the log file.
type Mode int

const (
	// ModeShared sends diagnostics through the relay socket, like any other
	// producer.
	ModeShared Mode = iota

	// ModeDirect appends diagnostics to the log file without going through
	// the relay socket.
	ModeDirect
)

func (m Mode) String() string {
	switch m {
	case ModeShared:
		return "shared"
	case ModeDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Emitter delivers one formatted diagnostic line.
type Emitter interface {
	Emit(p []byte) error
	Mode() Mode
}

type writerEmitter struct {
	w    io.Writer
	mode Mode
}

func (e *writerEmitter) Emit(p []byte) error {
	_, err := e.w.Write(p)
	return err
}

func (e *writerEmitter) Mode() Mode {
	return e.mode
}

// SharedChannel returns an emitter that writes each line to w, which sends
// it to the relay socket.
func SharedChannel(w io.Writer) Emitter {
	return &writerEmitter{w: w, mode: ModeShared}
}

// DirectWrite returns an emitter that appends each line to the log file
// through w.
func DirectWrite(w io.Writer) Emitter {
	return &writerEmitter{w: w, mode: ModeDirect}
}

// MockEmitter records emitted lines, for testing.
type MockEmitter struct {
	mode  Mode
	mu    sync.Mutex
	lines [][]byte
	err   error
}

// NewMockEmitter returns a MockEmitter reporting mode.
func NewMockEmitter(mode Mode) *MockEmitter {
	return &MockEmitter{mode: mode}
}

// Emit implements Emitter
func (e *MockEmitter) Emit(p []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.lines = append(e.lines, append([]byte(nil), p...))
	return nil
}

// Mode implements Emitter
func (e *MockEmitter) Mode() Mode {
	return e.mode
}

// SetError makes subsequent emits fail.
func (e *MockEmitter) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Lines returns the lines emitted so far.
func (e *MockEmitter) Lines() [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	lines := make([][]byte, len(e.lines))
	copy(lines, e.lines)
	return lines
}
