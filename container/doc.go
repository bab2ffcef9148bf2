// Package container reads and writes limg linked image containers.
//
// A container stores a sequence of opaque payloads (video frames) behind a
// 4-byte count prefix. Every record header carries a back-link to the
// previous record, so a Reader can step forward by reading contiguous bytes
// and step backward by following one back-link, without ever scanning the
// file or building an index.
//
// # Reading
//
// Reader is a single-owner state machine. Its operations are asynchronous:
// each one validates its preconditions and returns a precondition error
// directly, then performs its reads on a separate goroutine and reports the
// outcome to subscribed handlers as an Event.
//
//	r, err := container.NewReader("capture.limg")
//	if err != nil {
//	    return err
//	}
//	r.Subscribe(func(ev container.Event) {
//	    if ev.Kind == container.EventData {
//	        show(ev.Payload)
//	    }
//	})
//	if err := r.Open(ctx); err != nil {
//	    return err
//	}
//	_ = r.Wait(ctx)
//	_ = r.Advance(ctx)
//
// At most one forward and one backward operation may be outstanding, never
// both. A second request in the same direction is dropped silently; a
// request in the opposite direction fails with errs.ErrBusyAdvancing or
// errs.ErrBusyRetreating.
//
// # Growing files
//
// A recorder may still be appending while the container is read, in which
// case the count prefix is 0. The file size captured by Open is then a soft
// boundary: reaching it sets the provisional end flag, and TotalCount
// reports a conservative estimate until it does. Refresh re-reads the size
// and count prefix on demand.
//
// # Writing
//
// Writer appends records to a container under an exclusive file lock, and
// WriteFile builds a complete container atomically.
package container
