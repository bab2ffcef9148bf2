package container

import (
	"context"
	"fmt"

	"github.com/arloliu/limg/errs"
	"github.com/arloliu/limg/section"
)

// SeekTo moves to the 1-based position target by repeating forward or
// backward steps. Every step reads its record exactly like Advance or
// Retreat, but only the landing step emits EventData; the payloads of the
// records passed over are discarded.
//
// Returns errs.ErrNotOpen, a busy error naming the direction in flight, or
// errs.ErrUnknownTarget when target is below 1, above the declared count,
// or past the provisional end of a container without a declared count.
// Seeking to the current position is a no-op.
//
// When the count is unknown and the provisional end is reached before
// target, the seek stops there and emits EventError wrapping
// errs.ErrUnknownTarget. Steps already taken stay committed, as do steps
// taken before an I/O error. ctx is checked between steps; when it ends the
// seek stops with an EventError wrapping errs.ErrSeekInterrupted.
func (r *Reader) SeekTo(ctx context.Context, target int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if err := r.checkOpenLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	if err := r.busyLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	if !r.reachableLocked(target) {
		r.mu.Unlock()
		return errs.ErrUnknownTarget
	}
	if target == r.index {
		r.mu.Unlock()
		return nil
	}

	forward := target > r.index
	if forward {
		r.forwardInFlight = true
	} else {
		r.backwardInFlight = true
	}
	done := r.beginLocked()
	from := r.index
	r.mu.Unlock()

	plog.Debugf("seek %s: %d -> %d", r.filename, from, target)

	go r.runSeek(ctx, target, forward, done)

	return nil
}

func (r *Reader) reachableLocked(target int) bool {
	switch {
	case target < 1:
		return false
	case r.declaredCount != 0:
		return target <= int(r.declaredCount)
	case r.provisional:
		return target <= r.index
	default:
		return true
	}
}

func (r *Reader) runSeek(ctx context.Context, target int, forward bool, done chan struct{}) {
	var (
		rec record
		err error
	)

	for {
		r.mu.Lock()
		src := r.src
		position := r.index
		remaining := target - position
		offset := r.readCursor
		if !forward {
			remaining = -remaining
			offset = r.backLink
		}

		switch {
		case forward && r.provisional && r.declaredCount == 0:
			err = errs.ErrUnknownTarget
		case !forward && offset == section.NoBackLink:
			err = errs.ErrNoPreviousRecord
		}
		r.mu.Unlock()

		if err != nil {
			break
		}

		landing := remaining == 1
		if !landing {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = fmt.Errorf("%w at position %d: %w", errs.ErrSeekInterrupted, position, ctxErr)
				break
			}
		}

		rec, err = readRecord(src, offset, landing)
		if err != nil {
			break
		}

		if landing {
			break
		}

		r.mu.Lock()
		if forward {
			r.commitForwardLocked(rec)
		} else {
			r.commitBackwardLocked(rec)
		}
		r.mu.Unlock()
	}

	// the landing step commits and emits like a normal step
	r.complete(OpSeek, rec, err, forward, done)
}
