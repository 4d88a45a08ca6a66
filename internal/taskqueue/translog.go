package taskqueue

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Iron-Ham/sweepq/internal/task"
)

// AppendTranslations appends one "<id>\t<name=value ...>" line per record,
// numbering from firstID, under a blocking lock on the log file. It must be
// called only after the records were committed to the store.
func AppendTranslations(path string, firstID int, records []task.Record) error {
	if len(records) == 0 {
		return nil
	}
	return WithLock(path, true, func(f *os.File) error {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			return fmt.Errorf("seek translation log: %w", err)
		}
		w := bufio.NewWriter(f)
		for i, r := range records {
			w.WriteString(strconv.Itoa(firstID + i))
			w.WriteByte('\t')
			w.WriteString(r.Format())
			if err := w.WriteByte('\n'); err != nil {
				return fmt.Errorf("write translation log: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("write translation log: %w", err)
		}
		return f.Sync()
	})
}

// TruncateTranslations empties the translation log.
func TruncateTranslations(path string) error {
	return WithLock(path, true, func(f *os.File) error {
		if err := f.Truncate(0); err != nil {
			return fmt.Errorf("truncate translation log: %w", err)
		}
		return f.Sync()
	})
}
