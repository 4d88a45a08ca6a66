package taskqueue

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Sentinel errors returned by queue operations.
var (
	// ErrLockUnavailable is returned by non-blocking acquisitions when another
	// holder exists. It is recoverable: callers may retry, back off or skip.
	ErrLockUnavailable = errors.New("lock held by another process")

	// ErrStoreCorrupt is returned when record boundaries in the task store
	// cannot be parsed.
	ErrStoreCorrupt = errors.New("task store corrupt")

	// ErrLengthMismatch is returned when the task store and claim tracker
	// disagree on the number of tasks. It is never repaired automatically.
	ErrLengthMismatch = errors.New("task store and claim tracker lengths differ")

	// ErrNoFreeTask is returned by Claim when every task is taken.
	ErrNoFreeTask = errors.New("no free task")

	// ErrNotClaimed is returned by Complete for a task that is not claimed.
	ErrNotClaimed = errors.New("task is not claimed")

	// ErrTaskNotFound is returned for ids outside the store.
	ErrTaskNotFound = errors.New("task not found")
)

// Marker is the claim state of one task in the tracker.
type Marker byte

const (
	// MarkerFree indicates the task is waiting to be claimed.
	MarkerFree Marker = '.'

	// MarkerClaimed indicates a worker has taken the task.
	MarkerClaimed Marker = 'c'

	// MarkerDone indicates the task finished.
	MarkerDone Marker = 'd'
)

// String returns the name of the marker.
func (m Marker) String() string {
	switch m {
	case MarkerFree:
		return "free"
	case MarkerClaimed:
		return "claimed"
	case MarkerDone:
		return "done"
	default:
		return fmt.Sprintf("marker(%#x)", byte(m))
	}
}

// Range is a half-open interval [Start, End) of task ids.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of ids in the range.
func (r Range) Len() int { return r.End - r.Start }

// String formats the range as [start, end).
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// MarkerCounts tallies tracker markers.
type MarkerCounts struct {
	Total   int `json:"total"`
	Free    int `json:"free"`
	Claimed int `json:"claimed"`
	Done    int `json:"done"`
	Other   int `json:"other"`
}

// Default file names inside a queue work directory.
const (
	DefaultStoreFile    = "tasks.dat"
	DefaultTrackerFile  = "tasks.don"
	DefaultProgressFile = "progress.bin"
	DefaultTransLogFile = "tasks.txt"
)

// Paths locates the four queue files.
type Paths struct {
	Store    string
	Tracker  string
	Progress string
	TransLog string
}

// PathsIn returns the default file layout inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		Store:    filepath.Join(dir, DefaultStoreFile),
		Tracker:  filepath.Join(dir, DefaultTrackerFile),
		Progress: filepath.Join(dir, DefaultProgressFile),
		TransLog: filepath.Join(dir, DefaultTransLogFile),
	}
}
