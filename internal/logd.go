package internal

import (
	"io"
	"log"
	"os"
	"runtime"
	"strings"
)

// LifecycleManager handles application startup / shutdown for writers,
// sinks and servers.
type LifecycleManager interface {
	Setup() error
	Shutdown() error
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
}

// FileLine returns the base file name and line number of the caller,
// distance frames above the function calling FileLine.
func FileLine(distance int) (string, int) {
	_, file, line, ok := runtime.Caller(1 + distance)
	if !ok {
		file = "???"
		line = 0
	}

	parts := strings.Split(file, "/")
	file = parts[len(parts)-1]

	return file, line
}

// Prettybuf returns a human readable representation of a buffer that fits more
// or less on a log line
func Prettybuf(bufs ...[]byte) []byte {
	var flat []byte
	limit := 100
	for _, b := range bufs {
		flat = append(flat, b...)
	}
	if len(flat) > limit {
		var final []byte
		final = append(final, flat[:limit-5]...)
		final = append(final, []byte("...")...)
		final = append(final, flat[len(flat)-2:]...)
		return final
	}
	return flat
}

// CloseAll closes all supplied closers, returns the first error, and logs all
// errors.
func CloseAll(c []io.Closer) error {
	var firstErr error

	for _, cl := range c {
		if cl == nil {
			continue
		}
		if err := cl.Close(); err != nil {
			log.Printf("error closing %v: %+v", cl, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// IgnoreError logs the error to standard error if one occurred.
func IgnoreError(err error) {
	logIgnored(2, err)
}

// LogError is IgnoreError for call sites where the error is expected now and
// then.
func LogError(err error) {
	logIgnored(2, err)
}

func logIgnored(distance int, err error) {
	if err != nil {
		file, line := FileLine(distance)
		log.Printf("%s:%d: error ignored: %+v", file, line, err)
	}
}

// CopyBytes returns a copy of p
func CopyBytes(p []byte) []byte {
	b := make([]byte, len(p))
	copy(b, p)
	return b
}
