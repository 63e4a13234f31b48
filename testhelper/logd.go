package testhelper

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path"
	"runtime/debug"
	"syscall"
	"testing"
	"time"
)

const LogDirPrefix = "logrelay-testdata"

var ArtifactFile string

func init() {
	tmpfile, err := ioutil.TempFile("", "logrelay-artifacts.log")
	if err != nil {
		panic(err)
	}
	defer tmpfile.Close()

	ArtifactFile = tmpfile.Name()
}

// TmpLog returns a log file path in a new temporary directory
func TmpLog() string {
	return path.Join(getTempdir(), "maillog")
}

func getTempdir() string {
	dir, err := ioutil.TempDir("", LogDirPrefix)
	if err != nil {
		panic(fmt.Sprintf("Failed to get tempdir: %+v", err))
	}

	f, err := os.OpenFile(ArtifactFile, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		panic("failed to open artifact log for writing")
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		panic(err)
	}
	defer func() {
		if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
			panic("failed to write to artifact log")
		}
	}()

	if _, err := f.WriteString(fmt.Sprintf("%s\n", dir)); err != nil {
		panic("failed to write to artifact log")
	}

	return dir
}

// CleanupSuite removes every temporary directory created by the test run.
func CleanupSuite() error {
	f, err := os.Open(ArtifactFile)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fname := scanner.Text()

		if err := os.RemoveAll(fname); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	return os.Remove(ArtifactFile)
}

func CheckError(err error) {
	if err != nil {
		log.Printf("%s", debug.Stack())
		log.Fatalf("Unexpected error %+v", err)
	}
}

// WriteOrFail writes p to w, failing the test on error or a short write.
func WriteOrFail(t testing.TB, w io.Writer, p []byte) {
	t.Helper()
	n, err := w.Write(p)
	if err != nil {
		t.Fatalf("unexpected error writing %q: %+v", p, err)
	}
	if n != len(p) {
		t.Fatalf("expected to write %d bytes but wrote %d", len(p), n)
	}
}

// ReadFile returns the contents of a file, or fails the test.
func ReadFile(t testing.TB, p string) []byte {
	t.Helper()
	b, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatalf("failed to read %s: %+v", p, err)
	}
	return b
}

// Eventually polls cond until it returns true or the timeout passes.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met after %s\n%s", timeout, debug.Stack())
}
