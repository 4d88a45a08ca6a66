package taskqueue

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Counter selects one slot of the progress register.
type Counter int

const (
	CounterClaimed Counter = iota
	CounterCompleted
	CounterFailed
	CounterReleased

	numCounters
)

// String returns the counter name.
func (c Counter) String() string {
	switch c {
	case CounterClaimed:
		return "claimed"
	case CounterCompleted:
		return "completed"
	case CounterFailed:
		return "failed"
	case CounterReleased:
		return "released"
	default:
		return fmt.Sprintf("counter(%d)", int(c))
	}
}

// progressSize is the fixed size of the register block.
const progressSize = int(numCounters) * 8

// Progress is a snapshot of the progress register.
type Progress [numCounters]uint64

// Get returns the value of counter c.
func (p Progress) Get(c Counter) uint64 {
	return p[c]
}

func (p Progress) marshal() []byte {
	b := make([]byte, progressSize)
	for i, v := range p {
		binary.LittleEndian.PutUint64(b[i*8:], v)
	}
	return b
}

func parseProgress(b []byte) Progress {
	var p Progress
	for i := range p {
		p[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return p
}

// CreateProgress creates a zeroed progress register at path unless one
// exists.
func CreateProgress(path string) error {
	if _, err := createAtomic(path, Progress{}.marshal()); err != nil {
		return fmt.Errorf("create progress register: %w", err)
	}
	return nil
}

// TryResetProgress zeroes the register if its lock can be taken without
// blocking. Losing the race to another process is expected and reported as
// (false, nil), never as an error.
func TryResetProgress(path string) (bool, error) {
	err := WithLock(path, false, func(f *os.File) error {
		return writeProgress(f, Progress{})
	})
	if errors.Is(err, ErrLockUnavailable) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddProgress adds delta to counter c, blocking for the register lock.
func AddProgress(path string, c Counter, delta uint64) error {
	if c < 0 || c >= numCounters {
		return fmt.Errorf("unknown progress counter %d", int(c))
	}
	return WithLock(path, true, func(f *os.File) error {
		p, err := readProgress(f)
		if err != nil {
			return err
		}
		p[c] += delta
		return writeProgress(f, p)
	})
}

// ReadProgress returns the current register contents.
func ReadProgress(path string) (Progress, error) {
	var p Progress
	err := WithLock(path, true, func(f *os.File) error {
		var err error
		p, err = readProgress(f)
		return err
	})
	return p, err
}

// readProgress treats a missing or short block as zero so that a register
// created by a plain open reads as reset.
func readProgress(f *os.File) (Progress, error) {
	b := make([]byte, progressSize)
	n, err := f.ReadAt(b, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Progress{}, fmt.Errorf("read progress register: %w", err)
	}
	clear(b[n:])
	return parseProgress(b), nil
}

func writeProgress(f *os.File, p Progress) error {
	if _, err := f.WriteAt(p.marshal(), 0); err != nil {
		return fmt.Errorf("write progress register: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync progress register: %w", err)
	}
	return nil
}
