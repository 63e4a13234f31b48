// Package watchdog bounds the time a process may spend on a single unit of
// work. When the watchdog expires the process is expected to die; there is
// no in-band cancellation of the stuck work.
package watchdog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ExitCode is used by Terminate.
const ExitCode = 1

// Watchdog calls its expire function if it is armed for longer than its
// timeout.
type Watchdog struct {
	timeout time.Duration
	expire  func(time.Duration)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	expired bool
}

// New returns a disarmed Watchdog. If expire is nil, Terminate is used.
func New(timeout time.Duration, expire func(time.Duration)) *Watchdog {
	if expire == nil {
		expire = Terminate
	}
	return &Watchdog{
		timeout: timeout,
		expire:  expire,
	}
}

// Timeout returns the configured timeout.
func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// Start arms the watchdog, restarting the countdown if it is already armed.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()
	gen := w.gen
	w.timer = time.AfterFunc(w.timeout, func() { w.fire(gen) })
}

// Stop disarms the watchdog. It returns false if the watchdog had already
// expired.
func (w *Watchdog) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()
	return !w.expired
}

// Expired reports whether the watchdog has fired.
func (w *Watchdog) Expired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expired
}

func (w *Watchdog) stopLocked() {
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watchdog) fire(gen uint64) {
	w.mu.Lock()
	if gen != w.gen {
		// stopped or restarted after the timer went off
		w.mu.Unlock()
		return
	}
	w.expired = true
	w.timer = nil
	w.mu.Unlock()

	w.expire(w.timeout)
}

// Terminate writes a message to standard error and exits the process. It
// doesn't use the process's diagnostic logger since that may be the thing
// that is stuck.
func Terminate(timeout time.Duration) {
	fmt.Fprintf(os.Stderr, "%s watchdog timeout after %s, terminating\n",
		time.Now().Format("2006/01/02 15:04:05.000"), timeout)
	os.Exit(ExitCode)
}
