package container

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/limg/errs"
	"github.com/arloliu/limg/internal/options"
	"github.com/arloliu/limg/section"
)

// State is the lifecycle state of a Reader.
type State uint8

const (
	StateClosed State = iota
	StateOpening
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Reader traverses a container forward, backward and by position.
//
// A Reader is meant for a single owner. Its methods are safe to call from
// multiple goroutines, but the busy flags are the only protection against
// conflicting requests.
type Reader struct {
	filename   string
	openSource SourceOpener

	mu    sync.Mutex
	state State
	src   Source

	fileSize      int64  // captured at Open, advanced only by Refresh
	declaredCount uint32 // 0 while the count is unknown
	readCursor    int64  // header offset of the next record forward
	backLink      int64  // header offset of the record before the current one, 0 if none
	index         int    // 1-based position, 0 before the first record
	provisional   bool   // a forward step reached fileSize

	forwardInFlight  bool
	backwardInFlight bool
	done             chan struct{} // closed when the outstanding operation finishes

	handlers  []subscription
	handlerID uint64
}

type subscription struct {
	id uint64
	fn Handler
}

// NewReader creates a closed Reader for filename.
//
// Parameters:
//   - filename: Path of the container
//   - opts: Optional configuration (see WithSourceOpener)
//
// Returns:
//   - *Reader: The reader, in StateClosed
//   - error: An error if an option rejects its input
func NewReader(filename string, opts ...ReaderOption) (*Reader, error) {
	r := &Reader{
		filename:   filename,
		openSource: OpenFileSource,
	}

	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	return r, nil
}

// Filename returns the container path.
func (r *Reader) Filename() string {
	return r.filename
}

// Subscribe registers h for all future events and returns a function that
// removes it.
func (r *Reader) Subscribe(h Handler) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlerID++
	id := r.handlerID
	r.handlers = append(r.handlers, subscription{id: id, fn: h})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		for i, s := range r.handlers {
			if s.id == id {
				r.handlers = append(r.handlers[:i:i], r.handlers[i+1:]...)
				return
			}
		}
	}
}

// Open starts reading the count prefix. On success the reader moves to
// StateOpen, positioned before the first record, and EventOpened is
// emitted; on failure it returns to StateClosed and EventError is emitted.
//
// Returns errs.ErrAlreadyOpen unless the reader is closed.
func (r *Reader) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.state != StateClosed {
		r.mu.Unlock()
		return errs.ErrAlreadyOpen
	}
	r.state = StateOpening
	done := r.beginLocked()
	r.mu.Unlock()

	go r.runOpen(done)

	return nil
}

func (r *Reader) runOpen(done chan struct{}) {
	src, size, count, err := r.openContainer()

	r.mu.Lock()
	if err != nil {
		r.state = StateClosed
	} else {
		r.state = StateOpen
		r.src = src
		r.fileSize = size
		r.declaredCount = count
		r.rewindLocked()
	}
	ev := r.eventLocked(OpOpen, EventOpened, nil, err)
	handlers := r.handlersLocked()
	r.mu.Unlock()

	if err != nil {
		plog.Warningf("open %s: %v", r.filename, err)
	} else {
		plog.Infof("opened %s: size=%d declared=%d", r.filename, size, count)
	}

	r.emit(handlers, ev)
	r.finish(done)
}

func (r *Reader) openContainer() (Source, int64, uint32, error) {
	src, err := r.openSource(r.filename)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: open %s: %w", errs.ErrIO, r.filename, err)
	}

	size, err := src.Size()
	if err != nil {
		_ = src.Close()
		return nil, 0, 0, fmt.Errorf("%w: stat %s: %w", errs.ErrIO, r.filename, err)
	}

	prefix := make([]byte, section.CountSize)
	if err := readFull(src, prefix, 0); err != nil {
		_ = src.Close()
		return nil, 0, 0, err
	}

	return src, size, section.DecodeCount(prefix), nil
}

// Advance starts reading the record at the cursor. On success the position
// grows by one and EventData carries the payload.
//
// Returns errs.ErrNotOpen or errs.ErrBusyRetreating. A call while another
// forward step is in flight is dropped and returns nil.
func (r *Reader) Advance(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if err := r.checkOpenLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.backwardInFlight {
		r.mu.Unlock()
		return errs.ErrBusyRetreating
	}
	if r.forwardInFlight {
		r.mu.Unlock()
		plog.Debugf("advance dropped: forward step already in flight")

		return nil
	}
	r.forwardInFlight = true
	src, offset := r.src, r.readCursor
	done := r.beginLocked()
	r.mu.Unlock()

	go func() {
		rec, err := readRecord(src, offset, true)
		r.complete(OpAdvance, rec, err, true, done)
	}()

	return nil
}

// Retreat starts reading the record before the current one through the
// back-link. On success the position shrinks by one and EventData carries
// the payload.
//
// Returns errs.ErrNotOpen, errs.ErrBusyAdvancing or errs.ErrNoPreviousRecord.
// A call while another backward step is in flight is dropped and returns nil.
func (r *Reader) Retreat(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if err := r.checkOpenLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.forwardInFlight {
		r.mu.Unlock()
		return errs.ErrBusyAdvancing
	}
	if r.backwardInFlight {
		r.mu.Unlock()
		plog.Debugf("retreat dropped: backward step already in flight")

		return nil
	}
	if r.backLink == section.NoBackLink {
		r.mu.Unlock()
		return errs.ErrNoPreviousRecord
	}
	r.backwardInFlight = true
	src, offset := r.src, r.backLink
	done := r.beginLocked()
	r.mu.Unlock()

	go func() {
		rec, err := readRecord(src, offset, true)
		r.complete(OpRetreat, rec, err, false, done)
	}()

	return nil
}

// complete commits a finished single step and emits its outcome.
func (r *Reader) complete(op Op, rec record, err error, forward bool, done chan struct{}) {
	r.mu.Lock()
	if err == nil {
		if forward {
			r.commitForwardLocked(rec)
		} else {
			r.commitBackwardLocked(rec)
		}
	}
	r.forwardInFlight = false
	r.backwardInFlight = false
	ev := r.eventLocked(op, EventData, rec.payload, err)
	handlers := r.handlersLocked()
	r.mu.Unlock()

	if err != nil {
		plog.Warningf("%s at offset %d: %v", op, rec.offset, err)
	} else {
		plog.Debugf("%s: position=%d offset=%d length=%d", op, ev.Position, rec.offset, rec.header.PayloadLength)
	}

	r.emit(handlers, ev)
	r.finish(done)
}

func (r *Reader) commitForwardLocked(rec record) {
	r.backLink = int64(rec.header.BackLink)
	r.readCursor = rec.end()
	r.index++
	if r.readCursor >= r.fileSize {
		r.provisional = true
	}
}

func (r *Reader) commitBackwardLocked(rec record) {
	r.backLink = int64(rec.header.BackLink)
	r.readCursor = rec.end()
	r.index--
	r.provisional = false
}

// Reset rewinds to the position before the first record without any I/O.
func (r *Reader) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpenLocked(); err != nil {
		return err
	}
	if err := r.busyLocked(); err != nil {
		return err
	}

	r.rewindLocked()

	return nil
}

func (r *Reader) rewindLocked() {
	r.readCursor = section.FirstRecordOffset
	r.backLink = section.NoBackLink
	r.index = 0
	r.provisional = false
}

// Refresh re-reads the container size and count prefix so a reader can
// follow a file that is still being appended to. The position is kept; the
// provisional end flag is cleared when the file grew past the cursor.
func (r *Reader) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpenLocked(); err != nil {
		return err
	}

	size, err := r.src.Size()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", errs.ErrIO, r.filename, err)
	}

	prefix := make([]byte, section.CountSize)
	if err := readFull(r.src, prefix, 0); err != nil {
		return err
	}

	if size > r.fileSize {
		plog.Debugf("refresh %s: size %d -> %d", r.filename, r.fileSize, size)
		r.fileSize = size
	}
	if r.readCursor < r.fileSize {
		r.provisional = false
	}
	r.declaredCount = section.DecodeCount(prefix)

	return nil
}

// Close releases the file. It fails with a busy error while an operation
// is in flight; a closed reader may be opened again.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateOpening {
		return errs.ErrAlreadyOpen
	}
	if r.state != StateOpen {
		return nil
	}
	if err := r.busyLocked(); err != nil {
		return err
	}

	err := r.src.Close()
	r.src = nil
	r.state = StateClosed
	r.rewindLocked()

	if err != nil {
		return fmt.Errorf("%w: close %s: %w", errs.ErrIO, r.filename, err)
	}

	return nil
}

// Wait blocks until the operation outstanding at call time has finished
// and its handlers have returned.
func (r *Reader) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Await runs op, waits for it to finish and returns the event it produced.
// It is the synchronous form of the reader API:
//
//	ev, err := r.Await(ctx, r.Advance)
//
// When op is a no-op the returned event has Kind EventNone. When op is
// dropped because a step in the same direction is already in flight, Await
// waits for that step and returns its event. An EventError is returned
// together with its error.
func (r *Reader) Await(ctx context.Context, op func(context.Context) error) (Event, error) {
	events := make(chan Event, 1)
	unsubscribe := r.Subscribe(func(ev Event) {
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	if err := op(ctx); err != nil {
		return Event{}, err
	}

	if err := r.Wait(ctx); err != nil {
		return Event{}, err
	}

	select {
	case ev := <-events:
		return ev, ev.Err
	default:
		return Event{Kind: EventNone}, nil
	}
}

// State returns the lifecycle state.
func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// CurrentPosition returns the 1-based position of the last record reached,
// or 0 before the first record.
func (r *Reader) CurrentPosition() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.index
}

// TotalCount returns the declared record count when the container has one.
// Otherwise it returns the position once the provisional end is reached,
// and position+2 before that, so forward navigation stays enabled while
// the file is still growing.
func (r *Reader) TotalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.totalLocked()
}

func (r *Reader) totalLocked() int {
	switch {
	case r.declaredCount != 0:
		return int(r.declaredCount)
	case r.provisional:
		return r.index
	default:
		return r.index + 2
	}
}

// HasNext reports whether a forward step is expected to find a record.
func (r *Reader) HasNext() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state == StateOpen && r.index < r.totalLocked()
}

// HasPrevious reports whether Retreat can succeed.
func (r *Reader) HasPrevious() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state == StateOpen && r.backLink != section.NoBackLink
}

// DeclaredCount returns the count prefix, 0 when unknown.
func (r *Reader) DeclaredCount() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.declaredCount
}

// FileSize returns the container size captured at Open or the last Refresh.
func (r *Reader) FileSize() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.fileSize
}

// AtProvisionalEnd reports whether a forward step has reached the known file size.
func (r *Reader) AtProvisionalEnd() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.provisional
}

// Busy reports whether an operation is in flight.
func (r *Reader) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state == StateOpening || r.forwardInFlight || r.backwardInFlight
}

func (r *Reader) checkOpenLocked() error {
	if r.state != StateOpen {
		return errs.ErrNotOpen
	}

	return nil
}

// busyLocked names the direction in flight.
func (r *Reader) busyLocked() error {
	switch {
	case r.forwardInFlight:
		return errs.ErrBusyAdvancing
	case r.backwardInFlight:
		return errs.ErrBusyRetreating
	default:
		return nil
	}
}

func (r *Reader) beginLocked() chan struct{} {
	done := make(chan struct{})
	r.done = done

	return done
}

func (r *Reader) finish(done chan struct{}) {
	r.mu.Lock()
	if r.done == done {
		r.done = nil
	}
	r.mu.Unlock()

	close(done)
}

func (r *Reader) eventLocked(op Op, kind EventKind, payload []byte, err error) Event {
	ev := Event{
		Kind:     kind,
		Op:       op,
		Position: r.index,
		Total:    r.totalLocked(),
	}
	if err != nil {
		ev.Kind = EventError
		ev.Err = err
	} else if kind == EventData {
		ev.Payload = payload
	}

	return ev
}

func (r *Reader) handlersLocked() []Handler {
	handlers := make([]Handler, len(r.handlers))
	for i, s := range r.handlers {
		handlers[i] = s.fn
	}

	return handlers
}

func (r *Reader) emit(handlers []Handler, ev Event) {
	for _, h := range handlers {
		h(ev)
	}
}
