package container

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/arloliu/limg/errs"
)

// Source is the random-access view of a container file used by Reader.
//
// ReadAt must be safe to call while Size is being called from another
// goroutine; *os.File satisfies this.
type Source interface {
	io.ReaderAt
	io.Closer
	// Size returns the current size of the container in bytes.
	Size() (int64, error)
}

// SourceOpener opens the Source for a container name.
type SourceOpener func(name string) (Source, error)

type fileSource struct {
	*os.File
}

// OpenFileSource opens name read-only.
func OpenFileSource(name string) (Source, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	return fileSource{File: f}, nil
}

func (f fileSource) Size() (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}

	return fi.Size(), nil
}

// readFull reads exactly len(buf) bytes at off. A short read is an error
// even when the source reports io.EOF.
func readFull(src io.ReaderAt, buf []byte, off int64) error {
	if len(buf) == 0 {
		return nil
	}

	n, err := src.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}

	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	return fmt.Errorf("%w: read %d bytes at offset %d: %w", errs.ErrIO, len(buf), off, err)
}
