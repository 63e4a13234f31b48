package logger

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/jeffrom/logrelay/testhelper"
)

func TestWriterAppend(t *testing.T) {
	conf := testhelper.DefaultTestConfig(testing.Verbose())
	w, err := Open(conf)
	if err != nil {
		t.Fatalf("unexpected error opening: %+v", err)
	}

	for _, rec := range [][]byte{[]byte("A"), []byte("BB"), []byte("CCC")} {
		n, err := w.Write(rec)
		if err != nil {
			t.Fatalf("unexpected error writing: %+v", err)
		}
		if n != len(rec) {
			t.Fatalf("expected to write %d bytes, but wrote %d", len(rec), n)
		}
	}

	if err := w.Shutdown(); err != nil {
		t.Fatalf("unexpected error shutting down: %+v", err)
	}

	b, err := ioutil.ReadFile(conf.MaillogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte("ABBCCC")) {
		t.Fatalf("expected records appended unmodified but got %q", b)
	}
}

func TestWriterAppendsToExisting(t *testing.T) {
	conf := testhelper.DefaultTestConfig(testing.Verbose())
	if err := ioutil.WriteFile(conf.MaillogFile, []byte("old\n"), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := Open(conf)
	if err != nil {
		t.Fatalf("unexpected error opening: %+v", err)
	}
	if _, err := w.Write([]byte("new\n")); err != nil {
		t.Fatalf("unexpected error writing: %+v", err)
	}
	testhelper.CheckError(w.Shutdown())

	b, err := ioutil.ReadFile(conf.MaillogFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "old\nnew\n" {
		t.Fatalf("expected existing content to be kept but got %q", b)
	}
}

func TestWriterRecordNewline(t *testing.T) {
	conf := testhelper.DefaultTestConfig(testing.Verbose())
	conf.RecordNewline = true
	w, err := Open(conf)
	if err != nil {
		t.Fatalf("unexpected error opening: %+v", err)
	}

	for _, rec := range []string{"one", "two\n", ""} {
		n, err := w.Write([]byte(rec))
		if err != nil {
			t.Fatalf("unexpected error writing: %+v", err)
		}
		if n != len(rec) {
			t.Fatalf("expected %d bytes reported but got %d", len(rec), n)
		}
	}
	testhelper.CheckError(w.Shutdown())

	b, err := ioutil.ReadFile(conf.MaillogFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "one\ntwo\n\n" {
		t.Fatalf("expected terminated records but got %q", b)
	}
}

func TestWriterOpenFailure(t *testing.T) {
	conf := testhelper.DefaultTestConfig(testing.Verbose())
	conf.MaillogFile = "/no/such/dir/app.log"

	if _, err := Open(conf); err == nil {
		t.Fatal("expected an error opening a log file in a missing directory")
	}
}

func TestWriterOpenOnce(t *testing.T) {
	conf := testhelper.DefaultTestConfig(testing.Verbose())
	w := NewWriter(conf, conf.MaillogFile)
	testhelper.CheckError(w.Setup())
	defer w.Shutdown()

	if err := w.Setup(); errors.Cause(err) != ErrAlreadyOpen {
		t.Fatalf("expected ErrAlreadyOpen but got %+v", err)
	}
}

func TestWriterClosed(t *testing.T) {
	conf := testhelper.DefaultTestConfig(testing.Verbose())
	w := NewWriter(conf, filepath.Join(os.TempDir(), "never-opened.log"))

	if _, err := w.Write([]byte("x")); errors.Cause(err) != ErrClosed {
		t.Fatalf("expected ErrClosed but got %+v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("expected flush of unopened writer to be a no-op: %+v", err)
	}
}

func TestMockWriter(t *testing.T) {
	conf := testhelper.DefaultTestConfig(testing.Verbose())
	w := NewMockWriter(conf)

	testhelper.WriteOrFail(t, w, []byte("A"))
	testhelper.WriteOrFail(t, w, []byte("BB"))

	if writes := w.Writes(); len(writes) != 2 || string(writes[1]) != "BB" {
		t.Fatalf("expected two recorded writes but got %q", writes)
	}

	failure := errors.New("disk full")
	w.SetError(failure)
	if _, err := w.Write([]byte("C")); err != failure {
		t.Fatalf("expected configured error but got %+v", err)
	}
	if string(w.Bytes()) != "ABB" {
		t.Fatalf("expected failed write to be dropped but got %q", w.Bytes())
	}
}
