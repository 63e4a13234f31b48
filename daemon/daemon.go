// Package daemon holds the state a relay process owns for its lifetime: the
// configuration, the log file handle, the system log sink and the diagnostic
// logger. A Context is created once at startup and passed to everything that
// needs it.
package daemon

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/jeffrom/logrelay/config"
	"github.com/jeffrom/logrelay/diag"
	"github.com/jeffrom/logrelay/events"
	"github.com/jeffrom/logrelay/fallback"
	"github.com/jeffrom/logrelay/internal"
	"github.com/jeffrom/logrelay/logger"
	"github.com/jeffrom/logrelay/server"
)

// ErrAlreadyInitialized is returned when Initialize is called a second time.
var ErrAlreadyInitialized = errors.New("daemon is already initialized")

// ErrNotInitialized is returned when Run is called before Initialize.
var ErrNotInitialized = errors.New("daemon has not been initialized")

// Context is the state of one relay daemon process.
type Context struct {
	conf *config.Config
	sink fallback.Sink
	lock *internal.LockFile

	// Diag is the daemon's own diagnostic logger.
	Diag *diag.Logger

	mu          sync.Mutex
	initialized bool
	target      *logger.Writer
	relay       *events.Relay
}

// New returns a Context. d must still be on the shared channel; Initialize
// decides whether to redirect it.
func New(conf *config.Config, sink fallback.Sink, d *diag.Logger) *Context {
	return &Context{
		conf: conf,
		sink: sink,
		lock: internal.NewLockFile(conf.LockFile),
		Diag: d,
	}
}

// Initialize runs once, before any record is accepted. It rejects positional
// arguments, opens the log file if one is configured, and then sends the
// daemon's own diagnostics straight to that file so they never come back
// through the socket this process is serving. With no log file configured,
// diagnostics stay on the shared channel and records go to the system log.
func (c *Context) Initialize(args []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return ErrAlreadyInitialized
	}
	c.initialized = true

	if len(args) > 0 {
		err := errors.Errorf("unexpected command-line argument: %s", args[0])
		c.Diag.Fatalf("%v", err)
		return err
	}

	if c.conf.MaillogFile == "" {
		c.Diag.Debugf("no log file configured, forwarding records to the system log")
		return nil
	}

	w, err := logger.Open(c.conf)
	if err != nil {
		c.Diag.Fatalf("%+v", err)
		return err
	}
	c.target = w

	if err := c.Diag.Redirect(diag.DirectWrite(w)); err != nil {
		c.Diag.Fatalf("%+v", err)
		return err
	}
	c.Diag.Debugf("diagnostics redirected to %s", w.Path())
	return nil
}

// Target returns the open log file, or nil when records go to the system log.
func (c *Context) Target() logger.LogWriter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil {
		return nil
	}
	return c.target
}

// Relay returns the service loop once Run has started, or nil.
func (c *Context) Relay() *events.Relay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.relay
}

// Serve takes the solitary lock, initializes the daemon with args and runs it
// until ctx is done or the loop exits.
func (c *Context) Serve(ctx context.Context, args []string) error {
	if err := c.lock.Setup(); err != nil {
		c.Diag.Fatalf("%+v", err)
		return err
	}
	defer func() { internal.LogError(c.lock.Shutdown()) }()

	if err := c.Initialize(args); err != nil {
		c.release()
		return err
	}
	return c.Run(ctx)
}

// Run serves records from the socket until the loop exits, then releases
// the log file. The use limit is always disabled; the idle limit is kept.
func (c *Context) Run(ctx context.Context) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	c.mu.Unlock()

	relay, err := events.NewRelay(c.conf, c.Target(), c.sink, c.Diag)
	if err != nil {
		c.Diag.Fatalf("%+v", err)
		c.release()
		return err
	}
	relay.DisableUseLimit()
	c.Diag.Debugf("use limit disabled, idle limit is %s", c.conf.MaxIdle)

	c.mu.Lock()
	c.relay = relay
	c.mu.Unlock()

	srv := server.NewSocket(c.conf, c.Diag)
	srv.SetQPusher(relay)
	if err := srv.GoServe(); err != nil {
		c.Diag.Fatalf("%+v", err)
		c.release()
		return err
	}

	runErr := relay.Run(ctx)
	internal.LogError(srv.Stop())
	c.Diag.Debugf("shutting down: %s; socket %s", relay.Summary(), srv.Stats.Bytes())

	if err := c.release(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (c *Context) release() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil {
		return nil
	}
	err := c.target.Shutdown()
	c.target = nil
	if err != nil {
		err = errors.Wrap(err, "failed to close log file")
	}
	return err
}
