package taskqueue

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/Iron-Ham/sweepq/internal/task"
)

// Store file layout:
//
//	header  magic[8] version u32 reserved u32 count u64 end u64
//	frame*  length u32 crc32c u32 payload[length]
//
// All integers are little endian. Only frames below the committed end are
// part of the store; bytes after it are staging space.
const (
	storeMagic      = "SWPQSTOR"
	storeVersion    = 1
	storeHeaderSize = 32
	frameHeaderSize = 8

	// maxPayload bounds a single encoded record.
	maxPayload = 16 << 20
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// errStopIteration ends Each early without reporting an error.
var errStopIteration = errors.New("stop iteration")

type storeHeader struct {
	count uint64
	end   uint64
}

func emptyStoreHeader() storeHeader {
	return storeHeader{end: storeHeaderSize}
}

func (h storeHeader) marshal() []byte {
	b := make([]byte, storeHeaderSize)
	copy(b, storeMagic)
	binary.LittleEndian.PutUint32(b[8:], storeVersion)
	binary.LittleEndian.PutUint64(b[16:], h.count)
	binary.LittleEndian.PutUint64(b[24:], h.end)
	return b
}

func parseStoreHeader(b []byte) (storeHeader, error) {
	if string(b[:8]) != storeMagic {
		return storeHeader{}, fmt.Errorf("%w: bad magic %q", ErrStoreCorrupt, b[:8])
	}
	if v := binary.LittleEndian.Uint32(b[8:]); v != storeVersion {
		return storeHeader{}, fmt.Errorf("%w: unsupported version %d", ErrStoreCorrupt, v)
	}
	h := storeHeader{
		count: binary.LittleEndian.Uint64(b[16:]),
		end:   binary.LittleEndian.Uint64(b[24:]),
	}
	if h.end < storeHeaderSize {
		return storeHeader{}, fmt.Errorf("%w: committed end %d inside header", ErrStoreCorrupt, h.end)
	}
	if h.count > (h.end-storeHeaderSize)/frameHeaderSize {
		return storeHeader{}, fmt.Errorf("%w: %d records cannot fit in %d bytes", ErrStoreCorrupt, h.count, h.end)
	}
	return h, nil
}

// Store is the append-only task store. A Store wraps a file whose lock is
// held by the caller for the Store's whole lifetime.
type Store struct {
	f   *os.File
	hdr storeHeader
}

// CreateStore creates an empty task store at path. Creating a store that
// already exists is a no-op.
func CreateStore(path string) error {
	if _, err := createAtomic(path, emptyStoreHeader().marshal()); err != nil {
		return fmt.Errorf("create task store: %w", err)
	}
	return nil
}

// OpenStore reads the committed header of a locked store file. An empty
// file is initialized as an empty store.
func OpenStore(f *os.File) (*Store, error) {
	s := &Store{f: f}

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat task store: %w", err)
	}
	if fi.Size() == 0 {
		if err := s.Reset(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if fi.Size() < storeHeaderSize {
		return nil, fmt.Errorf("%w: file is %d bytes, shorter than header", ErrStoreCorrupt, fi.Size())
	}

	buf := make([]byte, storeHeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read task store header: %w", err)
	}
	hdr, err := parseStoreHeader(buf)
	if err != nil {
		return nil, err
	}
	if int64(hdr.end) > fi.Size() {
		return nil, fmt.Errorf("%w: committed end %d beyond file size %d", ErrStoreCorrupt, hdr.end, fi.Size())
	}
	s.hdr = hdr
	return s, nil
}

// Len returns the number of committed records.
func (s *Store) Len() int {
	return int(s.hdr.count)
}

// Each calls fn for every committed record in append order with its id.
// Returning an error from fn stops the iteration and returns that error.
func (s *Store) Each(fn func(id int, r task.Record) error) error {
	body := io.NewSectionReader(s.f, storeHeaderSize, int64(s.hdr.end)-storeHeaderSize)
	br := bufio.NewReaderSize(body, 64<<10)
	remaining := s.hdr.end - storeHeaderSize

	var fh [frameHeaderSize]byte
	var payload []byte
	for id := uint64(0); id < s.hdr.count; id++ {
		if _, err := io.ReadFull(br, fh[:]); err != nil {
			return fmt.Errorf("%w: record %d: truncated frame header: %v", ErrStoreCorrupt, id, err)
		}
		remaining -= frameHeaderSize
		n := binary.LittleEndian.Uint32(fh[0:])
		sum := binary.LittleEndian.Uint32(fh[4:])
		if n > maxPayload || uint64(n) > remaining {
			return fmt.Errorf("%w: record %d: bad length %d", ErrStoreCorrupt, id, n)
		}
		if cap(payload) < int(n) {
			payload = make([]byte, n)
		}
		payload = payload[:n]
		if _, err := io.ReadFull(br, payload); err != nil {
			return fmt.Errorf("%w: record %d: truncated payload: %v", ErrStoreCorrupt, id, err)
		}
		remaining -= uint64(n)
		if crc32.Checksum(payload, crcTable) != sum {
			return fmt.Errorf("%w: record %d: checksum mismatch", ErrStoreCorrupt, id)
		}
		rec, err := task.DecodeRecord(payload)
		if err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrStoreCorrupt, id, err)
		}
		if err := fn(int(id), rec); err != nil {
			return err
		}
	}
	if remaining != 0 {
		return fmt.Errorf("%w: %d unaccounted bytes before committed end", ErrStoreCorrupt, remaining)
	}
	return nil
}

// ReadAll returns every committed record in append order; the index of a
// record is its id.
func (s *Store) ReadAll() ([]task.Record, error) {
	records := make([]task.Record, 0, s.hdr.count)
	err := s.Each(func(_ int, r task.Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns the record with the given id.
func (s *Store) Get(id int) (task.Record, error) {
	if id < 0 || id >= s.Len() {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	var found task.Record
	err := s.Each(func(i int, r task.Record) error {
		if i == id {
			found = r
			return errStopIteration
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		return nil, err
	}
	return found, nil
}

// Stage writes records after the committed end and syncs them, without
// publishing them. It returns the header that would publish them.
func (s *Store) Stage(records []task.Record) (storeHeader, error) {
	if len(records) == 0 {
		return s.hdr, nil
	}

	var buf []byte
	for _, r := range records {
		payload := task.EncodeRecord(r)
		if len(payload) > maxPayload {
			return s.hdr, fmt.Errorf("record of %d bytes exceeds limit", len(payload))
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
		buf = binary.LittleEndian.AppendUint32(buf, crc32.Checksum(payload, crcTable))
		buf = append(buf, payload...)
	}

	if _, err := s.f.WriteAt(buf, int64(s.hdr.end)); err != nil {
		return s.hdr, fmt.Errorf("stage records: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return s.hdr, fmt.Errorf("sync staged records: %w", err)
	}
	return storeHeader{
		count: s.hdr.count + uint64(len(records)),
		end:   s.hdr.end + uint64(len(buf)),
	}, nil
}

// Commit publishes h with a single header write and syncs it.
func (s *Store) Commit(h storeHeader) error {
	if _, err := s.f.WriteAt(h.marshal(), 0); err != nil {
		return fmt.Errorf("write task store header: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync task store header: %w", err)
	}
	s.hdr = h
	return nil
}

// AppendMany stages and commits records. Either all of them become visible
// as a contiguous suffix or none do. It returns the number written.
func (s *Store) AppendMany(records []task.Record) (int, error) {
	h, err := s.Stage(records)
	if err != nil {
		return 0, err
	}
	if err := s.Commit(h); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Reset empties the store. The empty header is committed before the file is
// truncated, so a crash in between still leaves a valid empty store.
func (s *Store) Reset() error {
	if err := s.Commit(emptyStoreHeader()); err != nil {
		return err
	}
	if err := s.f.Truncate(storeHeaderSize); err != nil {
		return fmt.Errorf("truncate task store: %w", err)
	}
	return nil
}
