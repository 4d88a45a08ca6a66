// Package taskqueue implements the shared on-disk task queue that sweepq
// generators append to and workers claim from.
//
// The queue is four independently lockable files in one work directory:
//
//   - the task store, an append-only sequence of encoded [task.Record]s whose
//     ids are their 0-based positions;
//   - the claim tracker, one marker byte per task, index aligned with the
//     store;
//   - the progress register, a fixed block of counters that generators reset
//     on a best-effort basis;
//   - the translation log, a text file mapping task ids to their parameters.
//
// Cross-process safety rests entirely on advisory flock(2) locks taken on the
// data files themselves (see [FileLock]). Every operation that touches the
// store or the tracker locks both, store first, and checks that their lengths
// agree before doing anything else. Store appends are staged past the
// committed end of the file and become visible only when a single header
// write publishes the new length, so a crash mid-write never exposes a
// partial record.
//
// Usage:
//
//	q := taskqueue.New(taskqueue.PathsIn(".sweepq"), taskqueue.WithLogger(logger))
//	res, err := q.Generate(sw.Records(), taskqueue.GenerateOptions{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println("created", res.Created, "experiments")
package taskqueue
