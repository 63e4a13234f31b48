package server

import (
	"context"
	"net"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/jeffrom/logrelay/config"
	"github.com/jeffrom/logrelay/diag"
	"github.com/jeffrom/logrelay/internal"
	"github.com/jeffrom/logrelay/transport"
)

// SocketMode is applied to the socket file so any local process can write
// records.
const SocketMode os.FileMode = 0666

// Socket receives records as datagrams on a unix socket. Each datagram is one
// record.
type Socket struct {
	config *config.Config
	diag   *diag.Logger

	mu           sync.Mutex
	conn         *net.UnixConn
	shuttingDown bool

	q transport.RecordHandler

	ctx      context.Context
	cancel   context.CancelFunc
	doneC    chan struct{}
	stopOnce sync.Once

	Stats *internal.Stats
}

var _ transport.Server = (*Socket)(nil)

// NewSocket returns a new instance of a socket server listening on
// conf.Socket.
func NewSocket(conf *config.Config, d *diag.Logger) *Socket {
	ctx, cancel := context.WithCancel(context.Background())
	return &Socket{
		config: conf,
		diag:   d,
		ctx:    ctx,
		cancel: cancel,
		doneC:  make(chan struct{}),
		Stats:  internal.NewStats("datagrams", "read_errors", "truncated_records"),
	}
}

// SetQPusher implements transport.Server
func (s *Socket) SetQPusher(q transport.RecordHandler) {
	s.q = q
}

// ListenAddr returns the address of the socket, or nil before GoServe has
// been called.
func (s *Socket) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// GoServe binds the socket and reads records from it in a new goroutine. A
// stale socket file left by a previous run is removed first.
func (s *Socket) GoServe() error {
	if s.q == nil {
		return errors.New("no record handler set")
	}

	if err := os.Remove(s.config.Socket); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove stale socket %s", s.config.Socket)
	}

	addr := &net.UnixAddr{Name: s.config.Socket, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.config.Socket)
	}
	if err := os.Chmod(s.config.Socket, SocketMode); err != nil {
		internal.LogError(conn.Close())
		return errors.Wrapf(err, "failed to set mode on %s", s.config.Socket)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.diag.Debugf("serving at %s", s.config.Socket)
	go s.serve(conn)
	return nil
}

func (s *Socket) isShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.shuttingDown
}

func (s *Socket) serve(conn *net.UnixConn) {
	defer close(s.doneC)

	// one extra byte to tell a record of exactly MaxRecordSize from a
	// truncated one.
	buf := make([]byte, s.config.MaxRecordSize+1)
	for {
		n, _, err := conn.ReadFromUnix(buf)
		if err != nil {
			if s.isShuttingDown() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.Stats.Incr("read_errors")
			s.warnf("read error on %s: %+v", s.config.Socket, err)
			continue
		}

		if n > s.config.MaxRecordSize {
			s.Stats.Incr("truncated_records")
			s.warnf("record larger than %d bytes truncated: %q",
				s.config.MaxRecordSize, internal.Prettybuf(buf[:s.config.MaxRecordSize]))
			n = s.config.MaxRecordSize
		}
		s.Stats.Incr("datagrams")

		rec := transport.Record(internal.CopyBytes(buf[:n]))
		if err := s.q.PushRecord(s.ctx, rec); err != nil {
			if s.isShuttingDown() {
				return
			}
			s.diag.Debugf("stopped reading from %s: %v", s.config.Socket, err)
			return
		}
	}
}

// warnf logs a warning about a single datagram. While diagnostics still go
// through the shared channel they would arrive back on this socket, so only
// the counters are kept until Stop reports them.
func (s *Socket) warnf(format string, args ...interface{}) {
	if !s.diag.Redirected() {
		return
	}
	s.diag.Warnf(format, args...)
}

// Done is closed once the read loop has exited.
func (s *Socket) Done() <-chan struct{} {
	return s.doneC
}

// Stop closes the socket, waits for the read loop to finish and removes the
// socket file. It is safe to call more than once.
func (s *Socket) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.shuttingDown = true
		conn := s.conn
		s.mu.Unlock()

		s.cancel()
		if conn == nil {
			return
		}

		err = conn.Close()
		<-s.doneC

		if rerr := os.Remove(s.config.Socket); rerr != nil && !os.IsNotExist(rerr) && err == nil {
			err = errors.Wrapf(rerr, "failed to remove %s", s.config.Socket)
		}
		if n := s.Stats.Get("truncated_records"); n > 0 {
			s.diag.Warnf("%d records larger than %d bytes truncated", n, s.config.MaxRecordSize)
		}
		if n := s.Stats.Get("read_errors"); n > 0 {
			s.diag.Warnf("%d read errors on %s", n, s.config.Socket)
		}
		s.diag.Debugf("stopped serving at %s", s.config.Socket)
	})
	return err
}

// Setup implements internal.LifecycleManager
func (s *Socket) Setup() error {
	return s.GoServe()
}

// Shutdown implements internal.LifecycleManager
func (s *Socket) Shutdown() error {
	return s.Stop()
}
