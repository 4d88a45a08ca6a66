package taskqueue

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// scanWindow bounds how much of the tracker is mapped at once.
const scanWindow = 64 << 20

// Tracker is the claim tracker: one Marker byte per task, index aligned with
// the task store. Like Store, it wraps a file locked by the caller.
//
// Scans and in-place updates go through memory mappings of bounded windows,
// so very large trackers are never copied onto the heap.
type Tracker struct {
	f *os.File
}

// CreateTracker creates an empty tracker at path unless one exists.
func CreateTracker(path string) error {
	return createEmpty(path)
}

// OpenTracker wraps a locked tracker file.
func OpenTracker(f *os.File) *Tracker {
	return &Tracker{f: f}
}

// Len returns the number of markers.
func (t *Tracker) Len() (int, error) {
	fi, err := t.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat claim tracker: %w", err)
	}
	return int(fi.Size()), nil
}

// Append extends the tracker by n free markers and syncs them. On failure
// the tracker is truncated back to its previous length.
func (t *Tracker) Append(n int) error {
	if n <= 0 {
		return nil
	}
	size, err := t.Len()
	if err != nil {
		return err
	}

	buf := bytes.Repeat([]byte{byte(MarkerFree)}, n)
	if _, err := t.f.WriteAt(buf, int64(size)); err != nil {
		_ = t.f.Truncate(int64(size))
		return fmt.Errorf("extend claim tracker: %w", err)
	}
	if err := t.f.Sync(); err != nil {
		_ = t.f.Truncate(int64(size))
		return fmt.Errorf("sync claim tracker: %w", err)
	}
	return nil
}

// Truncate sets the tracker length to n.
func (t *Tracker) Truncate(n int) error {
	if err := t.f.Truncate(int64(n)); err != nil {
		return fmt.Errorf("truncate claim tracker: %w", err)
	}
	return t.f.Sync()
}

// At returns the marker of task id.
func (t *Tracker) At(id int) (Marker, error) {
	size, err := t.Len()
	if err != nil {
		return 0, err
	}
	if id < 0 || id >= size {
		return 0, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	var b [1]byte
	if _, err := t.f.ReadAt(b[:], int64(id)); err != nil {
		return 0, fmt.Errorf("read claim tracker: %w", err)
	}
	return Marker(b[0]), nil
}

// ScanFreeRanges returns the maximal runs of free markers in ascending order.
func (t *Tracker) ScanFreeRanges() ([]Range, error) {
	return t.ScanRanges(MarkerFree)
}

// ScanRanges returns the maximal runs of marker m in ascending order.
func (t *Tracker) ScanRanges(m Marker) ([]Range, error) {
	var ranges []Range
	start := -1
	size, err := t.scan(func(id int, c Marker) {
		if c == m {
			if start < 0 {
				start = id
			}
			return
		}
		if start >= 0 {
			ranges = append(ranges, Range{Start: start, End: id})
			start = -1
		}
	})
	if err != nil {
		return nil, err
	}
	if start >= 0 {
		ranges = append(ranges, Range{Start: start, End: size})
	}
	return ranges, nil
}

// Counts tallies the markers.
func (t *Tracker) Counts() (MarkerCounts, error) {
	var c MarkerCounts
	size, err := t.scan(func(_ int, m Marker) {
		switch m {
		case MarkerFree:
			c.Free++
		case MarkerClaimed:
			c.Claimed++
		case MarkerDone:
			c.Done++
		default:
			c.Other++
		}
	})
	if err != nil {
		return MarkerCounts{}, err
	}
	c.Total = size
	return c, nil
}

// MarkRange overwrites markers [start, end) with m in place.
func (t *Tracker) MarkRange(start, end int, m Marker) error {
	size, err := t.Len()
	if err != nil {
		return err
	}
	if start < 0 || end > size || start > end {
		return fmt.Errorf("%w: range [%d, %d) outside tracker of %d", ErrTaskNotFound, start, end, size)
	}

	for off := int64(start); off < int64(end); off += scanWindow {
		length := min(int64(scanWindow), int64(end)-off)
		err := t.window(off, length, unix.PROT_READ|unix.PROT_WRITE, func(b []byte) {
			for i := range b {
				b[i] = byte(m)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// scan visits every marker in order and returns the tracker length.
func (t *Tracker) scan(fn func(id int, m Marker)) (int, error) {
	size, err := t.Len()
	if err != nil {
		return 0, err
	}
	for off := int64(0); off < int64(size); off += scanWindow {
		length := min(int64(scanWindow), int64(size)-off)
		base := int(off)
		err := t.window(off, length, unix.PROT_READ, func(b []byte) {
			for i, c := range b {
				fn(base+i, Marker(c))
			}
		})
		if err != nil {
			return 0, err
		}
	}
	return size, nil
}

// window maps [off, off+length) of the tracker, calls fn with the mapped
// bytes, and syncs writable mappings back to the file before unmapping.
func (t *Tracker) window(off, length int64, prot int, fn func(b []byte)) error {
	page := int64(unix.Getpagesize())
	aligned := off - off%page
	delta := off - aligned

	data, err := unix.Mmap(int(t.f.Fd()), aligned, int(length+delta), prot, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap claim tracker: %w", err)
	}
	defer func() { _ = unix.Munmap(data) }()

	fn(data[delta : delta+length])

	if prot&unix.PROT_WRITE != 0 {
		if err := unix.Msync(data, unix.MS_SYNC); err != nil {
			return fmt.Errorf("msync claim tracker: %w", err)
		}
	}
	return nil
}
