//go:build unix

package container

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/arloliu/limg/errs"
)

// lockFile takes a non-blocking exclusive advisory lock so a second
// recorder cannot interleave records into the same container.
func lockFile(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return nil
	}

	if errors.Is(err, unix.EWOULDBLOCK) {
		return fmt.Errorf("%w: %s", errs.ErrWriterLocked, f.Name())
	}

	return fmt.Errorf("%w: lock %s: %w", errs.ErrIO, f.Name(), err)
}

func unlockFile(f *os.File) {
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
