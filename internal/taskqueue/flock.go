package taskqueue

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileLock provides cross-process mutual exclusion using flock(2) on the
// data file itself. The lock is whole-file and advisory. Each FileLock opens
// its own file description, so two FileLocks on the same path exclude each
// other even inside one process.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock for path. The file is created on first
// acquisition if it does not exist.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the locked file's path.
func (fl *FileLock) Path() string {
	return fl.path
}

// File returns the open file while the lock is held, nil otherwise. It is
// opened read-write.
func (fl *FileLock) File() *os.File {
	return fl.file
}

// Lock acquires an exclusive lock, blocking until available. There is no
// timeout.
func (fl *FileLock) Lock() error {
	return fl.acquire(unix.LOCK_EX)
}

// TryLock attempts to acquire the lock without blocking. It returns an error
// wrapping ErrLockUnavailable if another holder exists.
func (fl *FileLock) TryLock() error {
	return fl.acquire(unix.LOCK_EX | unix.LOCK_NB)
}

func (fl *FileLock) acquire(how int) error {
	if fl.file != nil {
		return fmt.Errorf("lock %s: already held", fl.path)
	}
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	for {
		err = unix.Flock(int(f.Fd()), how)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return fmt.Errorf("%w: %s", ErrLockUnavailable, fl.path)
		}
		return fmt.Errorf("flock %s: %w", fl.path, err)
	}

	fl.file = f
	return nil
}

// Unlock releases the lock and closes the file. Unlocking a lock that is not
// held is a no-op.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	if err := unix.Flock(int(fl.file.Fd()), unix.LOCK_UN); err != nil {
		_ = fl.file.Close()
		fl.file = nil
		return fmt.Errorf("funlock: %w", err)
	}

	err := fl.file.Close()
	fl.file = nil
	return err
}

// WithLock runs fn while holding the lock on path. When blocking is false and
// the lock is held elsewhere, fn is not run and the error wraps
// ErrLockUnavailable. The lock is released on every exit path, including a
// panic in fn.
func WithLock(path string, blocking bool, fn func(f *os.File) error) (err error) {
	fl := NewFileLock(path)
	if blocking {
		err = fl.Lock()
	} else {
		err = fl.TryLock()
	}
	if err != nil {
		return err
	}
	defer func() {
		if uerr := fl.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn(fl.File())
}
