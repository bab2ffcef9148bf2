package container

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/arloliu/limg/errs"
	"github.com/arloliu/limg/internal/options"
	"github.com/arloliu/limg/internal/pool"
	"github.com/arloliu/limg/section"
)

const filePerms = 0o644

// Writer appends records to a container while readers may be following it.
//
// Every Append writes one complete record at the end of the file. Records
// are never rewritten; only the count prefix is touched again, by Close
// when WithFinalizeCount is set.
type Writer struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	cfg    writerConfig
	last   int64 // header offset of the last record, 0 if none
	size   int64 // offset where the next record goes
	count  uint32
	closed bool
}

// Create creates or truncates path and writes the count prefix.
//
// Parameters:
//   - path: Container path
//   - opts: Optional configuration (WithDeclaredCount, WithFinalizeCount, WithCompressor, WithSyncEachRecord)
//
// Returns:
//   - *Writer: The writer, positioned before the first record
//   - error: errs.ErrWriterLocked if another writer holds the container, or an I/O error
func Create(path string, opts ...WriterOption) (*Writer, error) {
	w := &Writer{path: path}
	if err := options.Apply(&w.cfg, opts...); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, filePerms)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", errs.ErrIO, path, err)
	}

	// lock before truncating so a live writer's file is left intact
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.Truncate(0); err != nil {
		w.abort(f)
		return nil, fmt.Errorf("%w: truncate %s: %w", errs.ErrIO, path, err)
	}

	if _, err := f.WriteAt(section.EncodeCount(w.cfg.declaredCount), 0); err != nil {
		w.abort(f)
		return nil, fmt.Errorf("%w: write count prefix: %w", errs.ErrIO, err)
	}

	w.f = f
	w.size = section.FirstRecordOffset

	plog.Infof("created %s (declared=%d)", path, w.cfg.declaredCount)

	return w, nil
}

// OpenAppend reopens an existing container to append more records.
//
// It walks the records forward to find the last one. A torn record at the
// tail, left by a writer that died mid-append, is truncated away. The count
// prefix is reset to 0 because the container is growing again.
func OpenAppend(path string, opts ...WriterOption) (*Writer, error) {
	w := &Writer{path: path}
	if err := options.Apply(&w.cfg, opts...); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, filePerms)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", errs.ErrIO, path, err)
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := w.recover(f); err != nil {
		w.abort(f)
		return nil, err
	}

	w.f = f

	plog.Infof("reopened %s: %d records, %d bytes", path, w.count, w.size)

	return w, nil
}

func (w *Writer) recover(f *os.File) error {
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", errs.ErrIO, w.path, err)
	}
	fileSize := fi.Size()

	prefix := make([]byte, section.CountSize)
	if err := readFull(f, prefix, 0); err != nil {
		return err
	}

	offset := int64(section.FirstRecordOffset)
	var hdr [section.HeaderSize]byte

	for offset+section.HeaderSize <= fileSize {
		if err := readFull(f, hdr[:], offset); err != nil {
			return err
		}

		backLink, length := section.DecodeHeader(hdr[:])
		if int64(backLink) != w.last {
			return fmt.Errorf("%w: record at %d links to %d, want %d", errs.ErrCorruptBackLink, offset, backLink, w.last)
		}

		end := offset + section.HeaderSize + int64(length)
		if end > fileSize {
			break
		}

		w.last = offset
		w.count++
		offset = end
	}

	if offset < fileSize {
		plog.Warningf("%s: truncating torn tail record at %d (%d bytes)", w.path, offset, fileSize-offset)
		if err := f.Truncate(offset); err != nil {
			return fmt.Errorf("%w: truncate %s: %w", errs.ErrIO, w.path, err)
		}
	}
	w.size = offset

	if section.DecodeCount(prefix) != 0 {
		if _, err := f.WriteAt(section.EncodeCount(0), 0); err != nil {
			return fmt.Errorf("%w: reset count prefix: %w", errs.ErrIO, err)
		}
	}

	return nil
}

// Append writes payload as the next record and returns its header offset.
func (w *Writer) Append(payload []byte) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.f == nil {
		return 0, errs.ErrWriterClosed
	}
	if err := checkCount(uint64(w.count) + 1); err != nil {
		return 0, err
	}

	data, err := w.encodePayload(payload)
	if err != nil {
		return 0, err
	}

	if err := checkLimits(w.size, len(data)); err != nil {
		return 0, err
	}

	buf := pool.GetRecordBuffer()
	defer pool.PutRecordBuffer(buf)

	buf.B = section.AppendHeader(buf.B, uint32(w.last), uint32(len(data)))
	_, _ = buf.Write(data)

	if _, err := w.f.WriteAt(buf.Bytes(), w.size); err != nil {
		return 0, fmt.Errorf("%w: append record at %d: %w", errs.ErrIO, w.size, err)
	}

	if w.cfg.syncEachRecord {
		if err := w.f.Sync(); err != nil {
			return 0, fmt.Errorf("%w: sync %s: %w", errs.ErrIO, w.path, err)
		}
	}

	offset := w.size
	w.last = offset
	w.size += int64(buf.Len())
	w.count++

	return offset, nil
}

func (w *Writer) encodePayload(payload []byte) ([]byte, error) {
	if w.cfg.compressor == nil {
		return payload, nil
	}

	data, err := w.cfg.compressor.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress record %d: %w", w.count+1, err)
	}

	return data, nil
}

// checkLimits verifies a record at offset can be addressed by the next
// record's back-link and that its length fits the header.
func checkLimits(offset int64, length int) error {
	if uint64(length) > section.MaxPayloadLength {
		return fmt.Errorf("%w: payload of %d bytes", errs.ErrPayloadTooLarge, length)
	}
	if offset > section.MaxOffset {
		return fmt.Errorf("%w: record offset %d", errs.ErrPayloadTooLarge, offset)
	}

	return nil
}

// checkCount verifies count records can be declared in the count prefix.
func checkCount(count uint64) error {
	if count > section.MaxRecordCount {
		return fmt.Errorf("%w: %d records", errs.ErrPayloadTooLarge, count)
	}

	return nil
}

// Count returns the number of records in the container.
func (w *Writer) Count() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.count
}

// Size returns the container size in bytes.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.size
}

// Sync flushes written records to stable storage.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.f == nil {
		return errs.ErrWriterClosed
	}

	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", errs.ErrIO, w.path, err)
	}

	return nil
}

// Close optionally writes the final count prefix, syncs, unlocks and closes
// the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.f == nil {
		return nil
	}
	w.closed = true

	var firstErr error
	if w.cfg.finalizeCount {
		if _, err := w.f.WriteAt(section.EncodeCount(w.count), 0); err != nil {
			firstErr = fmt.Errorf("%w: finalize count: %w", errs.ErrIO, err)
		}
	}

	if err := w.f.Sync(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: sync %s: %w", errs.ErrIO, w.path, err)
	}

	unlockFile(w.f)
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: close %s: %w", errs.ErrIO, w.path, err)
	}

	plog.Infof("closed %s: %d records", w.path, w.count)

	return firstErr
}

func (w *Writer) abort(f *os.File) {
	unlockFile(f)
	_ = f.Close()
}

// Encode builds a complete container holding payloads, with the count
// prefix set to len(payloads).
func Encode(payloads [][]byte, opts ...WriterOption) ([]byte, error) {
	var cfg writerConfig
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if err := checkCount(uint64(len(payloads))); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(section.EncodeCount(uint32(len(payloads))))

	var last int64
	for i, payload := range payloads {
		data := payload
		if cfg.compressor != nil {
			packed, err := cfg.compressor.Compress(payload)
			if err != nil {
				return nil, fmt.Errorf("compress record %d: %w", i+1, err)
			}
			data = packed
		}

		offset := int64(out.Len())
		if err := checkLimits(offset, len(data)); err != nil {
			return nil, err
		}

		out.Write(section.EncodeHeader(uint32(last), uint32(len(data))))
		out.Write(data)
		last = offset
	}

	return out.Bytes(), nil
}

// WriteFile encodes payloads and replaces path atomically, so a reader
// never observes a partially written container.
func WriteFile(path string, payloads [][]byte, opts ...WriterOption) error {
	data, err := Encode(payloads, opts...)
	if err != nil {
		return err
	}

	return writeAtomic(path, bytes.NewReader(data))
}

func writeAtomic(path string, r io.Reader) error {
	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("%w: write %s: %w", errs.ErrIO, path, err)
	}

	return nil
}
