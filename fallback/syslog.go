package fallback

import (
	"log/syslog"
	"sync"

	"github.com/jeffrom/logrelay/config"
	"github.com/jeffrom/logrelay/internal"
)

// severityWriter is the subset of *syslog.Writer used by Syslog.
type severityWriter interface {
	Emerg(m string) error
	Alert(m string) error
	Crit(m string) error
	Err(m string) error
	Warning(m string) error
	Notice(m string) error
	Info(m string) error
	Debug(m string) error
	Close() error
}

type dialFunc func(fac Facility, tag string) (severityWriter, error)

func dialSyslog(fac Facility, tag string) (severityWriter, error) {
	return syslog.Dial("", "", syslog.Priority(fac<<3)|syslog.LOG_INFO, tag)
}

// Syslog sends records to the local syslog daemon. Connections are made
// lazily, one per facility, and retried on the next record if they fail.
type Syslog struct {
	conf    *config.Config
	mu      sync.Mutex
	dial    dialFunc
	writers map[Facility]severityWriter
}

// NewSyslog returns a new instance of Syslog
func NewSyslog(conf *config.Config) *Syslog {
	return &Syslog{
		conf:    conf,
		dial:    dialSyslog,
		writers: make(map[Facility]severityWriter),
	}
}

// Emit implements Sink.
func (s *Syslog) Emit(sev Severity, fac Facility, p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.writers[fac]
	if !ok {
		var err error
		w, err = s.dial(fac, s.conf.SyslogName)
		if err != nil {
			internal.LogError(err)
			return
		}
		s.writers[fac] = w
	}

	internal.LogError(writeSeverity(w, sev, string(p)))
}

func writeSeverity(w severityWriter, sev Severity, m string) error {
	switch sev {
	case SeverityEmerg:
		return w.Emerg(m)
	case SeverityAlert:
		return w.Alert(m)
	case SeverityCrit:
		return w.Crit(m)
	case SeverityErr:
		return w.Err(m)
	case SeverityWarning:
		return w.Warning(m)
	case SeverityNotice:
		return w.Notice(m)
	case SeverityDebug:
		return w.Debug(m)
	default:
		return w.Info(m)
	}
}

// Close implements Sink, closing every open syslog connection.
func (s *Syslog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for fac, w := range s.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.writers, fac)
	}
	return firstErr
}
