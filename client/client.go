// Package client sends records to the relay daemon over its unix datagram
// socket. When the daemon can't be reached, records go to the system log
// instead so they aren't silently lost.
package client

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jeffrom/logrelay/config"
	"github.com/jeffrom/logrelay/fallback"
	"github.com/jeffrom/logrelay/internal"
)

// DefaultWriteTimeout bounds a single datagram write.
const DefaultWriteTimeout = time.Second

// Client writes one record per datagram to the relay socket.
type Client struct {
	conf    *config.Config
	timeout time.Duration

	mu       sync.Mutex
	conn     *net.UnixConn
	sink     fallback.Sink
	facility fallback.Facility
}

// New returns a Client for conf.Socket. The socket is dialed on first use.
func New(conf *config.Config) *Client {
	return &Client{
		conf:    conf,
		timeout: DefaultWriteTimeout,
	}
}

// Dial returns a Client that is already connected to the relay socket.
func Dial(conf *config.Config) (*Client, error) {
	c := New(conf)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithFallback makes the client send records to sink when the relay socket
// can't be written to.
func (c *Client) WithFallback(sink fallback.Sink) (*Client, error) {
	fac, err := fallback.ParseFacility(c.conf.SyslogFacility)
	if err != nil {
		return nil, err
	}
	c.sink = sink
	c.facility = fac
	return c, nil
}

// WithTimeout sets the write timeout for each record.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

func (c *Client) connect() error {
	addr := &net.UnixAddr{Name: c.conf.Socket, Net: "unixgram"}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		return errors.Wrapf(err, "failed to dial %s", c.conf.Socket)
	}
	c.conn = conn
	return nil
}

// Write sends p as a single record. If the relay can't be reached and a
// fallback sink is set, the record is sent there and no error is returned.
func (c *Client) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.send(p)
	if err == nil {
		return len(p), nil
	}

	if c.conn != nil {
		internal.LogError(c.conn.Close())
		c.conn = nil
	}

	if c.sink != nil {
		c.sink.Emit(fallback.SeverityInfo, c.facility, p)
		return len(p), nil
	}
	return 0, err
}

func (c *Client) send(p []byte) error {
	if c.conn == nil {
		if err := c.connect(); err != nil {
			return err
		}
	}

	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return errors.Wrap(err, "failed to set write deadline")
		}
	}
	n, err := c.conn.Write(p)
	if err != nil {
		return errors.Wrapf(err, "failed to write to %s", c.conf.Socket)
	}
	if n != len(p) {
		return errors.Errorf("short write to %s: %d of %d bytes", c.conf.Socket, n, len(p))
	}
	return nil
}

// Close implements io.Closer
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
