package taskqueue

import (
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/sweepq/internal/logging"
	"github.com/Iron-Ham/sweepq/internal/task"
)

// Queue runs the locked transactions over the four queue files. It holds no
// state beyond its configuration; every method re-reads the files under
// their locks, so any number of Queues in any number of processes may share
// one work directory.
type Queue struct {
	paths  Paths
	logger *logging.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used for transaction diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// New creates a Queue over paths. No files are touched until a method runs.
func New(paths Paths, opts ...Option) *Queue {
	q := &Queue{paths: paths, logger: logging.NopLogger()}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.WithStore(paths.Store)
	return q
}

// Paths returns the queue's file layout.
func (q *Queue) Paths() Paths {
	return q.paths
}

// Init creates every queue file that does not exist yet, and their
// directories. It is idempotent and safe to race with other processes.
func (q *Queue) Init() error {
	for _, p := range []string{q.paths.Store, q.paths.Tracker, q.paths.Progress, q.paths.TransLog} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("create queue directory: %w", err)
		}
	}
	if err := CreateStore(q.paths.Store); err != nil {
		return err
	}
	if err := CreateTracker(q.paths.Tracker); err != nil {
		return err
	}
	if err := CreateProgress(q.paths.Progress); err != nil {
		return err
	}
	return createEmpty(q.paths.TransLog)
}

// withStoreAndTracker locks the store and then the tracker, opens both and
// checks length parity before running fn. Markers past the committed store
// end are a tail staged by a generate that never committed; they are
// dropped. A tracker shorter than the store is reported as
// ErrLengthMismatch. Both locks are held until fn returns.
func (q *Queue) withStoreAndTracker(blocking, checkParity bool, fn func(s *Store, t *Tracker) error) error {
	return WithLock(q.paths.Store, blocking, func(sf *os.File) error {
		return WithLock(q.paths.Tracker, blocking, func(tf *os.File) error {
			t := OpenTracker(tf)
			s, err := OpenStore(sf)
			if err != nil {
				if checkParity {
					return err
				}
				// Clearing rebuilds a store that cannot be read.
				s = &Store{f: sf}
			}
			if checkParity {
				n, err := t.Len()
				if err != nil {
					return err
				}
				if n > s.Len() {
					if err := t.Truncate(s.Len()); err != nil {
						return err
					}
					q.logger.Warn("dropped uncommitted tracker tail", "markers", n-s.Len())
					n = s.Len()
				}
				if n != s.Len() {
					return fmt.Errorf("%w: store has %d records, tracker has %d markers", ErrLengthMismatch, s.Len(), n)
				}
			}
			return fn(s, t)
		})
	})
}

// GenerateOptions control a generate transaction.
type GenerateOptions struct {
	// Clear truncates the store, tracker and translation log instead of
	// appending to them.
	Clear bool
	// Shuffle applies a reproducible permutation, seeded by Seed, to the
	// candidates before deduplication.
	Shuffle bool
	Seed    uint64
}

// GenerateResult reports what a generate transaction did.
type GenerateResult struct {
	Candidates int // records produced by the expansion
	Duplicates int // candidates already queued or repeated in the batch
	Created    int // records appended
	FirstID    int // id of the first appended record
	Reset      bool

	// TransLogErr is set when the records were queued but their lines could
	// not be written to the translation log.
	TransLogErr error
}

// Generate appends every candidate whose fingerprint is not already in the
// store. The whole read-dedup-write span runs under blocking locks on the
// store and the tracker. New records are staged past the committed store
// end and their free markers are appended to the tracker; rewriting the
// store header then publishes both at once. Translations are logged once
// ids are final, and the progress register is reset if nobody else holds it.
func (q *Queue) Generate(candidates iter.Seq[task.Record], opts GenerateOptions) (GenerateResult, error) {
	var res GenerateResult

	var batch []task.Record
	for r := range candidates {
		batch = append(batch, r)
	}
	res.Candidates = len(batch)
	if opts.Shuffle {
		Shuffle(batch, opts.Seed)
	}

	if err := q.Init(); err != nil {
		return res, err
	}

	var created []task.Record
	err := q.withStoreAndTracker(true, !opts.Clear, func(s *Store, t *Tracker) error {
		if opts.Clear {
			if err := s.Reset(); err != nil {
				return err
			}
			if err := t.Truncate(0); err != nil {
				return err
			}
			if err := TruncateTranslations(q.paths.TransLog); err != nil {
				return err
			}
			q.logger.Info("cleared queue")
		}

		seen := make(task.FingerprintSet, s.Len()+len(batch))
		if err := s.Each(func(_ int, r task.Record) error {
			seen.Add(r)
			return nil
		}); err != nil {
			return err
		}

		for _, r := range batch {
			if seen.Add(r) {
				created = append(created, r)
			}
		}
		res.Duplicates = len(batch) - len(created)
		res.FirstID = s.Len()
		if len(created) == 0 {
			return nil
		}

		next, err := s.Stage(created)
		if err != nil {
			return err
		}
		if err := t.Append(len(created)); err != nil {
			return err
		}
		if err := s.Commit(next); err != nil {
			if terr := t.Truncate(res.FirstID); terr != nil {
				return errors.Join(err, fmt.Errorf("drop staged tracker tail: %w", terr))
			}
			return err
		}
		res.Created = len(created)

		q.logger.Info("appended tasks",
			"first_id", res.FirstID,
			"created", res.Created,
			"duplicates", res.Duplicates,
		)

		// Logged under the store lock so lines land in id order. The
		// records are already committed, so a failure here is reported
		// without failing the transaction.
		if err := AppendTranslations(q.paths.TransLog, res.FirstID, created); err != nil {
			res.TransLogErr = err
			q.logger.Error("translation log not updated",
				"first_id", res.FirstID,
				"count", res.Created,
				"error", err.Error())
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	reset, err := TryResetProgress(q.paths.Progress)
	if err != nil {
		return res, err
	}
	res.Reset = reset
	if !reset {
		q.logger.Debug("progress register busy, reset skipped")
	}
	return res, nil
}

// Shuffle permutes records in place with a PCG generator seeded by seed.
// The same seed and input always give the same order.
func Shuffle(records []task.Record, seed uint64) {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}

// Release returns every claimed task to free, for example after a worker
// crash, and reports how many were released. Done tasks are left alone.
func (q *Queue) Release() (int, error) {
	if err := q.Init(); err != nil {
		return 0, err
	}

	released := 0
	err := q.withStoreAndTracker(true, true, func(_ *Store, t *Tracker) error {
		claimed, err := t.ScanRanges(MarkerClaimed)
		if err != nil {
			return err
		}
		for _, r := range claimed {
			if err := t.MarkRange(r.Start, r.End, MarkerFree); err != nil {
				return err
			}
			released += r.Len()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if released > 0 {
		if err := AddProgress(q.paths.Progress, CounterReleased, uint64(released)); err != nil {
			return released, err
		}
	}
	q.logger.Info("released tasks", "released", released)
	return released, nil
}

// Claim marks the first free task claimed and returns its id and record.
// With blocking false it fails with ErrLockUnavailable instead of waiting
// for another process. It returns ErrNoFreeTask when nothing is free.
func (q *Queue) Claim(blocking bool) (int, task.Record, error) {
	id := -1
	var rec task.Record
	err := q.withStoreAndTracker(blocking, true, func(s *Store, t *Tracker) error {
		free, err := t.ScanFreeRanges()
		if err != nil {
			return err
		}
		if len(free) == 0 {
			return ErrNoFreeTask
		}
		first := free[0].Start
		r, err := s.Get(first)
		if err != nil {
			return err
		}
		if err := t.MarkRange(first, first+1, MarkerClaimed); err != nil {
			return err
		}
		id, rec = first, r
		return nil
	})
	if err != nil {
		return -1, nil, err
	}

	if err := AddProgress(q.paths.Progress, CounterClaimed, 1); err != nil {
		return id, rec, err
	}
	q.logger.Debug("claimed task", "task_id", id)
	return id, rec, nil
}

// Complete marks a claimed task done.
func (q *Queue) Complete(id int) error {
	err := q.withStoreAndTracker(true, true, func(_ *Store, t *Tracker) error {
		m, err := t.At(id)
		if err != nil {
			return err
		}
		if m != MarkerClaimed {
			return fmt.Errorf("%w: task %d is %s", ErrNotClaimed, id, m)
		}
		return t.MarkRange(id, id+1, MarkerDone)
	})
	if err != nil {
		return err
	}
	q.logger.Debug("completed task", "task_id", id)
	return AddProgress(q.paths.Progress, CounterCompleted, 1)
}

// Status is a consistent snapshot of the queue.
type Status struct {
	Tasks      int          `json:"tasks"`
	Markers    MarkerCounts `json:"markers"`
	FreeRanges []Range      `json:"free_ranges"`
	Progress   Progress     `json:"progress"`
}

// Status reads the store length and tracker markers under their locks, then
// the progress register under its own. A queue that was never generated
// reports as empty and no files are created.
func (q *Queue) Status() (Status, error) {
	if ok, err := exists(q.paths.Store); err != nil || !ok {
		return Status{}, err
	}

	var st Status
	err := q.withStoreAndTracker(true, true, func(s *Store, t *Tracker) error {
		st.Tasks = s.Len()
		// Both scans only read the mapping, so they can share the tracker.
		var g errgroup.Group
		g.Go(func() (err error) {
			st.Markers, err = t.Counts()
			return err
		})
		g.Go(func() (err error) {
			st.FreeRanges, err = t.ScanFreeRanges()
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return Status{}, err
	}

	if ok, err := exists(q.paths.Progress); err != nil || !ok {
		return st, err
	}
	st.Progress, err = ReadProgress(q.paths.Progress)
	if err != nil {
		return Status{}, err
	}
	return st, nil
}

// Tasks returns every queued record in id order.
func (q *Queue) Tasks() ([]task.Record, error) {
	if ok, err := exists(q.paths.Store); err != nil || !ok {
		return nil, err
	}
	var records []task.Record
	err := q.withStoreAndTracker(true, true, func(s *Store, _ *Tracker) error {
		var err error
		records, err = s.ReadAll()
		return err
	})
	return records, err
}
