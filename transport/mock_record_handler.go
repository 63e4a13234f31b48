package transport

import (
	"context"
	"sync"
)

// MockRecordHandler implements RecordHandler, keeping every record pushed.
type MockRecordHandler struct {
	mu      sync.Mutex
	records []Record
	pushedC chan struct{}
}

// NewMockRecordHandler returns a new instance of *MockRecordHandler
func NewMockRecordHandler() *MockRecordHandler {
	return &MockRecordHandler{pushedC: make(chan struct{}, 1000)}
}

// PushRecord implements RecordHandler interface
func (rh *MockRecordHandler) PushRecord(ctx context.Context, rec Record) error {
	rh.mu.Lock()
	rh.records = append(rh.records, append(Record(nil), rec...))
	rh.mu.Unlock()

	select {
	case rh.pushedC <- struct{}{}:
	default:
	}
	return nil
}

// Pushed returns a channel that receives once per pushed record.
func (rh *MockRecordHandler) Pushed() <-chan struct{} {
	return rh.pushedC
}

// Records returns the records pushed so far.
func (rh *MockRecordHandler) Records() []Record {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	records := make([]Record, len(rh.records))
	copy(records, rh.records)
	return records
}
