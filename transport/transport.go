package transport

import (
	"context"
	"net"
)

// Record is one opaque, already formatted log record. Its contents are never
// inspected.
type Record []byte

// Server is used by events to start and stop servers
type Server interface {
	GoServe() error
	Stop() error
	ListenAddr() net.Addr
	SetQPusher(q RecordHandler)
}

// RecordHandler lets a server push records to the event q. There is no
// response: delivery is fire and forget.
type RecordHandler interface {
	PushRecord(context.Context, Record) error
}
