package diag

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/jeffrom/logrelay/testhelper"
)

func newTestLogger(t *testing.T, verbose bool) (*Logger, *MockEmitter, *bytes.Buffer) {
	conf := testhelper.DefaultTestConfig(verbose)
	shared := NewMockEmitter(ModeShared)
	l := New(conf, shared)
	stderr := &bytes.Buffer{}
	l.stderr = stderr
	l.now = func() time.Time { return time.Date(2026, time.March, 7, 9, 5, 1, 0, time.UTC) }
	return l, shared, stderr
}

func TestLoggerFormat(t *testing.T) {
	l, shared, _ := newTestLogger(t, false)
	l.hostname = "mx1"
	l.pid = 42

	l.Warnf("queue %s is %d%% full", "active", 90)

	lines := shared.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected one line but got %d", len(lines))
	}
	expected := "Mar  7 09:05:01.000 mx1 logrelayd-test[42]: warning: queue active is 90% full\n"
	if string(lines[0]) != expected {
		t.Fatalf("expected %q but got %q", expected, lines[0])
	}
}

func TestLoggerDebug(t *testing.T) {
	l, shared, _ := newTestLogger(t, false)
	l.Debugf("hidden")
	if n := len(shared.Lines()); n != 0 {
		t.Fatalf("expected debug output to be suppressed but got %d lines", n)
	}

	l, shared, _ = newTestLogger(t, true)
	l.Debugf("shown")
	lines := shared.Lines()
	if len(lines) != 1 || !strings.Contains(string(lines[0]), "debug: diag_test.go:") {
		t.Fatalf("expected debug line with caller but got %q", lines)
	}
}

func TestLoggerRedirect(t *testing.T) {
	l, shared, _ := newTestLogger(t, false)
	l.Logf("before")

	direct := NewMockEmitter(ModeDirect)
	if err := l.Redirect(direct); err != nil {
		t.Fatalf("unexpected error redirecting: %+v", err)
	}
	if !l.Redirected() || l.Mode() != ModeDirect {
		t.Fatalf("expected logger to be redirected, mode is %s", l.Mode())
	}

	for i := 0; i < 5; i++ {
		l.Logf("after %d", i)
		l.Errorf("error %d", i)
	}

	if n := len(shared.Lines()); n != 1 {
		t.Fatalf("expected shared channel to see only the line before redirect but got %d", n)
	}
	if n := len(direct.Lines()); n != 10 {
		t.Fatalf("expected 10 direct lines but got %d", n)
	}
}

func TestLoggerRedirectOnce(t *testing.T) {
	l, shared, _ := newTestLogger(t, false)

	if err := l.Redirect(NewMockEmitter(ModeShared)); err != ErrNotDirect {
		t.Fatalf("expected ErrNotDirect but got %+v", err)
	}
	if err := l.Redirect(nil); err != ErrNotDirect {
		t.Fatalf("expected ErrNotDirect for nil emitter but got %+v", err)
	}

	first := NewMockEmitter(ModeDirect)
	if err := l.Redirect(first); err != nil {
		t.Fatal(err)
	}
	second := NewMockEmitter(ModeDirect)
	if err := l.Redirect(second); err != ErrAlreadyRedirected {
		t.Fatalf("expected ErrAlreadyRedirected but got %+v", err)
	}

	l.Logf("still first")
	if len(first.Lines()) != 1 || len(second.Lines()) != 0 || len(shared.Lines()) != 0 {
		t.Fatal("expected the first redirect to stay in effect")
	}
}

func TestLoggerEmitFailure(t *testing.T) {
	l, _, stderr := newTestLogger(t, false)
	direct := NewMockEmitter(ModeDirect)
	direct.SetError(errors.New("disk full"))
	if err := l.Redirect(direct); err != nil {
		t.Fatal(err)
	}

	l.Errorf("cannot write")

	out := stderr.String()
	if !strings.Contains(out, "error: cannot write") || !strings.Contains(out, "disk full") {
		t.Fatalf("expected failed diagnostic on stderr but got %q", out)
	}
}

func TestWriterEmitters(t *testing.T) {
	var shared, direct bytes.Buffer
	if m := SharedChannel(&shared).Mode(); m != ModeShared {
		t.Fatalf("expected shared mode but got %s", m)
	}
	e := DirectWrite(&direct)
	if e.Mode() != ModeDirect {
		t.Fatalf("expected direct mode but got %s", e.Mode())
	}
	if err := e.Emit([]byte("line\n")); err != nil {
		t.Fatal(err)
	}
	if direct.String() != "line\n" {
		t.Fatalf("expected line to be written but got %q", direct.String())
	}
}
