package fallback

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/ssgreg/journald"

	"github.com/jeffrom/logrelay/testhelper"
)

type fakeSyslogWriter struct {
	lines  []string
	levels []Severity
	closed bool
}

func (w *fakeSyslogWriter) record(sev Severity, m string) error {
	w.lines = append(w.lines, m)
	w.levels = append(w.levels, sev)
	return nil
}

func (w *fakeSyslogWriter) Emerg(m string) error   { return w.record(SeverityEmerg, m) }
func (w *fakeSyslogWriter) Alert(m string) error   { return w.record(SeverityAlert, m) }
func (w *fakeSyslogWriter) Crit(m string) error    { return w.record(SeverityCrit, m) }
func (w *fakeSyslogWriter) Err(m string) error     { return w.record(SeverityErr, m) }
func (w *fakeSyslogWriter) Warning(m string) error { return w.record(SeverityWarning, m) }
func (w *fakeSyslogWriter) Notice(m string) error  { return w.record(SeverityNotice, m) }
func (w *fakeSyslogWriter) Info(m string) error    { return w.record(SeverityInfo, m) }
func (w *fakeSyslogWriter) Debug(m string) error   { return w.record(SeverityDebug, m) }
func (w *fakeSyslogWriter) Close() error {
	w.closed = true
	return nil
}

func TestParseFacility(t *testing.T) {
	testCases := map[string]Facility{
		"mail":     FacilityMail,
		"MAIL":     FacilityMail,
		"LOG_MAIL": FacilityMail,
		"daemon":   FacilityDaemon,
		"local0":   FacilityLocal0,
		"local7":   FacilityLocal0 + 7,
	}

	for name, expected := range testCases {
		t.Run(name, func(t *testing.T) {
			f, err := ParseFacility(name)
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if f != expected {
				t.Fatalf("expected facility %d but got %d", expected, f)
			}
		})
	}

	if _, err := ParseFacility("mailbox"); err == nil {
		t.Fatal("expected error for an unknown facility")
	}
}

func TestSeverityString(t *testing.T) {
	if s := SeverityInfo.String(); s != "info" {
		t.Fatalf("expected info but got %q", s)
	}
	if s := Severity(42).String(); s != "severity(42)" {
		t.Fatalf("expected numeric fallback but got %q", s)
	}
}

func TestSyslogEmit(t *testing.T) {
	conf := testhelper.FallbackTestConfig(testing.Verbose())
	s := NewSyslog(conf)

	w := &fakeSyslogWriter{}
	var dialed []Facility
	s.dial = func(fac Facility, tag string) (severityWriter, error) {
		if tag != conf.SyslogName {
			t.Fatalf("expected tag %q but got %q", conf.SyslogName, tag)
		}
		dialed = append(dialed, fac)
		return w, nil
	}

	s.Emit(SeverityInfo, FacilityMail, []byte("X"))
	s.Emit(SeverityWarning, FacilityMail, []byte("Y"))

	if len(dialed) != 1 {
		t.Fatalf("expected a single connection per facility but dialed %d times", len(dialed))
	}
	if len(w.lines) != 2 || w.lines[0] != "X" || w.levels[0] != SeverityInfo || w.levels[1] != SeverityWarning {
		t.Fatalf("unexpected syslog writes: %q %v", w.lines, w.levels)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error closing: %+v", err)
	}
	if !w.closed {
		t.Fatal("expected syslog connection to be closed")
	}
}

func TestSyslogDialFailure(t *testing.T) {
	conf := testhelper.FallbackTestConfig(testing.Verbose())
	s := NewSyslog(conf)

	attempts := 0
	w := &fakeSyslogWriter{}
	s.dial = func(fac Facility, tag string) (severityWriter, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection refused")
		}
		return w, nil
	}

	s.Emit(SeverityInfo, FacilityMail, []byte("lost"))
	s.Emit(SeverityInfo, FacilityMail, []byte("kept"))

	if attempts != 2 {
		t.Fatalf("expected dial to be retried but got %d attempts", attempts)
	}
	if len(w.lines) != 1 || w.lines[0] != "kept" {
		t.Fatalf("expected only the second record but got %q", w.lines)
	}
}

func TestJournaldEmit(t *testing.T) {
	conf := testhelper.FallbackTestConfig(testing.Verbose())
	j := NewJournald(conf)

	var gotMsg string
	var gotPriority journald.Priority
	var gotFields map[string]interface{}
	j.send = func(msg string, p journald.Priority, fields map[string]interface{}) error {
		gotMsg, gotPriority, gotFields = msg, p, fields
		return nil
	}

	j.Emit(SeverityInfo, FacilityMail, []byte("X"))

	if gotMsg != "X" {
		t.Fatalf("expected payload X but got %q", gotMsg)
	}
	if gotPriority != journald.PriorityInfo {
		t.Fatalf("expected info priority but got %v", gotPriority)
	}
	if gotFields["SYSLOG_IDENTIFIER"] != conf.SyslogName || gotFields["SYSLOG_FACILITY"] != int(FacilityMail) {
		t.Fatalf("unexpected journal fields: %+v", gotFields)
	}
}

func TestNew(t *testing.T) {
	conf := testhelper.FallbackTestConfig(testing.Verbose())

	s, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Syslog); !ok {
		t.Fatalf("expected syslog sink by default but got %T", s)
	}

	conf.FallbackSink = "journald"
	s, err = New(conf)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Journald); !ok {
		t.Fatalf("expected journald sink but got %T", s)
	}

	conf.FallbackSink = "carrier-pigeon"
	if _, err := New(conf); err == nil {
		t.Fatal("expected error for unknown sink")
	}
}
