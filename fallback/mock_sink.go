package fallback

import "sync"

// Emitted is a record received by MockSink.
type Emitted struct {
	Severity Severity
	Facility Facility
	Payload  []byte
}

// MockSink records every emitted record, for testing.
type MockSink struct {
	mu      sync.Mutex
	emitted []Emitted
	closed  bool
}

// NewMockSink returns a new instance of MockSink
func NewMockSink() *MockSink {
	return &MockSink{}
}

// Emit implements Sink.
func (s *MockSink) Emit(sev Severity, fac Facility, p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted = append(s.emitted, Emitted{
		Severity: sev,
		Facility: fac,
		Payload:  append([]byte(nil), p...),
	})
}

// Close implements Sink.
func (s *MockSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Emitted returns the records received so far.
func (s *MockSink) Emitted() []Emitted {
	s.mu.Lock()
	defer s.mu.Unlock()
	emitted := make([]Emitted, len(s.emitted))
	copy(emitted, s.emitted)
	return emitted
}

// Closed reports whether Close has been called.
func (s *MockSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
