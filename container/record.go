package container

import (
	"fmt"
	"io"

	"github.com/arloliu/limg/errs"
	"github.com/arloliu/limg/internal/pool"
	"github.com/arloliu/limg/section"
)

// record is one record read from the container.
type record struct {
	offset  int64 // header offset
	header  section.RecordHeader
	payload []byte // nil when the payload was discarded
}

// end returns the offset just past the payload, where the next record starts.
func (rec record) end() int64 {
	return rec.offset + rec.header.RecordSize()
}

// readRecord reads the header at offset and then its payload. When keep is
// false the payload is still read, into a pooled scratch buffer, so a
// truncated record fails exactly as it would in a normal step, and is then
// discarded.
func readRecord(src Source, offset int64, keep bool) (record, error) {
	rec := record{offset: offset}

	var hdr [section.HeaderSize]byte
	if err := readFull(src, hdr[:], offset); err != nil {
		return rec, err
	}

	if err := rec.header.Parse(hdr[:]); err != nil {
		return rec, fmt.Errorf("%w: %w", errs.ErrIO, err)
	}

	if err := validateBackLink(offset, rec.header.BackLink); err != nil {
		return rec, err
	}

	// re-stat: the file may have grown since Open
	size, err := src.Size()
	if err != nil {
		return rec, fmt.Errorf("%w: stat: %w", errs.ErrIO, err)
	}
	if rec.end() > size {
		return rec, fmt.Errorf("%w: record at %d declares %d payload bytes, file ends at %d: %w",
			errs.ErrIO, offset, rec.header.PayloadLength, size, io.ErrUnexpectedEOF)
	}

	length := int(rec.header.PayloadLength)

	if keep {
		payload := make([]byte, length)
		if err := readFull(src, payload, offset+section.HeaderSize); err != nil {
			return rec, err
		}
		rec.payload = payload

		return rec, nil
	}

	scratch := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(scratch)

	if err := readFull(src, scratch.Resize(length), offset+section.HeaderSize); err != nil {
		return rec, err
	}

	return rec, nil
}

// validateBackLink checks that a back-link points at an earlier record header.
func validateBackLink(offset int64, backLink uint32) error {
	if backLink == section.NoBackLink {
		return nil
	}

	link := int64(backLink)
	if link < section.FirstRecordOffset || link+section.HeaderSize > offset {
		return fmt.Errorf("%w: record at %d links to %d", errs.ErrCorruptBackLink, offset, link)
	}

	return nil
}
