package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/jeffrom/logrelay/config"
	"github.com/jeffrom/logrelay/diag"
	"github.com/jeffrom/logrelay/fallback"
	"github.com/jeffrom/logrelay/internal"
	"github.com/jeffrom/logrelay/logger"
	"github.com/jeffrom/logrelay/stats"
	"github.com/jeffrom/logrelay/transport"
	"github.com/jeffrom/logrelay/watchdog"
)

// this file contains the core logic of the program. Records come from the
// transport one at a time. Each one is either appended to the log file or,
// when there is no log file, forwarded to the system log. Only the loop
// goroutine touches the log file.

var statKeys = []string{
	"bytes_appended",
	"bytes_forwarded",
	"record_errors",
	"records_appended",
	"records_forwarded",
	"requests",
}

// ErrStopped is returned by PushRecord once the relay loop has exited.
var ErrStopped = errors.New("relay has stopped")

// ErrAlreadyRunning is returned when Run is called more than once.
var ErrAlreadyRunning = errors.New("relay is already running")

// State is the lifecycle state of the service loop.
type State int32

const (
	StateStarting State = iota
	StateAccepting
	StateProcessing
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateAccepting:
		return "accepting"
	case StateProcessing:
		return "processing"
	case StateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// Relay manages receiving and routing records.
type Relay struct {
	config   *config.Config
	target   logger.LogWriter
	sink     fallback.Sink
	facility fallback.Facility
	diag     *diag.Logger
	dog      *watchdog.Watchdog

	in      chan transport.Record
	done    chan struct{}
	running int32
	state   int32

	maxUse int
	served int

	Stats  *internal.Stats
	Timing *stats.Histogram

	stopOnce sync.Once
	stopC    chan struct{}
}

// NewRelay creates a new instance of a Relay. target may be nil, in which case
// every record goes to sink.
func NewRelay(conf *config.Config, target logger.LogWriter, sink fallback.Sink, d *diag.Logger) (*Relay, error) {
	fac, err := fallback.ParseFacility(conf.SyslogFacility)
	if err != nil {
		return nil, err
	}

	return &Relay{
		config:   conf,
		target:   target,
		sink:     sink,
		facility: fac,
		diag:     d,
		dog:      watchdog.New(conf.WatchdogTimeout, nil),
		in:       make(chan transport.Record),
		done:     make(chan struct{}),
		stopC:    make(chan struct{}),
		maxUse:   conf.MaxUse,
		Stats:    internal.NewStats(statKeys...),
		Timing:   stats.NewHistogram(),
	}, nil
}

// WithWatchdog replaces the watchdog that bounds each record.
func (r *Relay) WithWatchdog(w *watchdog.Watchdog) *Relay {
	r.dog = w
	return r
}

// DisableUseLimit turns off exiting after a fixed number of records. The
// idle limit stays in effect.
func (r *Relay) DisableUseLimit() {
	r.maxUse = 0
}

// UseLimit returns the number of records served before the loop exits, or
// 0 for no limit.
func (r *Relay) UseLimit() int {
	return r.maxUse
}

// State returns the current state of the service loop.
func (r *Relay) State() State {
	return State(atomic.LoadInt32(&r.state))
}

func (r *Relay) setState(s State) {
	atomic.StoreInt32(&r.state, int32(s))
}

// Run serves records until ctx is done, the relay is stopped, it has been
// idle for MaxIdle, or the use limit is reached. Those cases return nil. A
// failed append is returned as an error and the caller must exit.
func (r *Relay) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&r.running, 0, 1) {
		return ErrAlreadyRunning
	}
	defer close(r.done)
	defer r.setState(StateTerminating)

	var idleC <-chan time.Time
	var idle *time.Timer
	if r.config.MaxIdle > 0 {
		idle = time.NewTimer(r.config.MaxIdle)
		defer idle.Stop()
		idleC = idle.C
	}

	r.setState(StateAccepting)
	// nothing is logged per record. Without a log file, diagnostics travel
	// through the socket this loop reads from.
	for {
		select {
		case rec := <-r.in:
			r.setState(StateProcessing)
			if err := r.process(rec); err != nil {
				r.diag.Fatalf("%+v", err)
				return err
			}
			r.setState(StateAccepting)

			r.served++
			if r.maxUse > 0 && r.served >= r.maxUse {
				r.diag.Debugf("use limit of %d records reached", r.maxUse)
				return nil
			}

			if idle != nil {
				idle.Reset(r.config.MaxIdle)
			}

		case <-idleC:
			r.diag.Debugf("idle for %s, exiting", r.config.MaxIdle)
			return nil

		case <-ctx.Done():
			r.diag.Debugf("context done: %v", ctx.Err())
			return nil

		case <-r.stopC:
			return nil
		}
	}
}

// Stop makes Run return after the record in progress, if any.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() { close(r.stopC) })
}

// Done is closed once Run has returned.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// PushRecord hands a record to the loop. It blocks until the loop takes it,
// which keeps records in the order they were pushed. Called by the transport
// goroutine.
func (r *Relay) PushRecord(ctx context.Context, rec transport.Record) error {
	select {
	case r.in <- rec:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "record cancelled")
	}
}

// process routes one record under the watchdog. If the watchdog expires the
// process is terminated; process never sees that case.
func (r *Relay) process(rec transport.Record) error {
	started := time.Now()
	r.dog.Start()
	err := r.route(rec)
	r.dog.Stop()
	r.Timing.Observe(time.Since(started))

	r.Stats.Incr("requests")
	if err != nil {
		r.Stats.Incr("record_errors")
	}
	return err
}

// route appends rec to the log file or, when there is none, forwards it to
// the system log. A failed append isn't retried or forwarded.
func (r *Relay) route(rec transport.Record) error {
	if r.target != nil {
		if _, err := r.target.Write(rec); err != nil {
			return errors.Wrap(err, "failed to append record")
		}
		r.Stats.Incr("records_appended")
		r.Stats.Add("bytes_appended", int64(len(rec)))
		return nil
	}

	r.sink.Emit(fallback.SeverityInfo, r.facility, rec)
	r.Stats.Incr("records_forwarded")
	r.Stats.Add("bytes_forwarded", int64(len(rec)))
	return nil
}

// Summary returns a one line description of what the relay has done.
func (r *Relay) Summary() string {
	return string(r.Stats.Bytes()) + ", route " + r.Timing.String()
}
