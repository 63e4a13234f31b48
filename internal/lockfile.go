package internal

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrLocked is returned by LockFile.Lock when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// LockFile is an exclusive advisory lock on a file, held for the lifetime
// of a solitary process.
type LockFile struct {
	path string
	f    *os.File
}

// NewLockFile returns an unlocked LockFile for path.
func NewLockFile(path string) *LockFile {
	return &LockFile{path: path}
}

// Lock takes the lock without blocking and writes the current pid to the
// file.
func (l *LockFile) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create lock directory for %s", l.path)
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to open lock file %s", l.path)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		IgnoreError(f.Close())
		if err == unix.EWOULDBLOCK {
			return errors.Wrap(ErrLocked, l.path)
		}
		return errors.Wrapf(err, "failed to lock %s", l.path)
	}

	if err := f.Truncate(0); err != nil {
		IgnoreError(f.Close())
		return errors.Wrapf(err, "failed to truncate lock file %s", l.path)
	}
	if _, err := f.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		IgnoreError(f.Close())
		return errors.Wrapf(err, "failed to write lock file %s", l.path)
	}

	l.f = f
	return nil
}

// Unlock releases the lock. The file itself is left in place.
func (l *LockFile) Unlock() error {
	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil

	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		IgnoreError(f.Close())
		return errors.Wrapf(err, "failed to unlock %s", l.path)
	}
	return f.Close()
}

// Setup implements LifecycleManager
func (l *LockFile) Setup() error {
	return l.Lock()
}

// Shutdown implements LifecycleManager
func (l *LockFile) Shutdown() error {
	return l.Unlock()
}
