// Package errs defines the sentinel errors shared by the limg packages.
//
// Errors returned by limg wrap one of these sentinels, so callers should
// match with errors.Is rather than comparing values directly:
//
//	if errors.Is(err, errs.ErrIO) {
//	    // the underlying read failed, the session is still usable
//	}
package errs

import "errors"

// Reader session errors.
var (
	// ErrNotOpen is returned when an operation is attempted before a successful Open.
	ErrNotOpen = errors.New("container not opened")
	// ErrAlreadyOpen is returned when Open is called on a session that is opening or open.
	ErrAlreadyOpen = errors.New("container already opened")
	// ErrIO wraps any failure of the underlying file, including short reads of a truncated container.
	ErrIO = errors.New("container I/O error")
	// ErrBusyAdvancing is returned when a conflicting operation is issued while a forward step is in flight.
	ErrBusyAdvancing = errors.New("busy going forward")
	// ErrBusyRetreating is returned when a conflicting operation is issued while a backward step is in flight.
	ErrBusyRetreating = errors.New("busy rewinding")
	// ErrNoPreviousRecord is returned by Retreat at the first record.
	ErrNoPreviousRecord = errors.New("no previous record to rewind to")
	// ErrUnknownTarget is returned when a seek target is outside the known bounds of the container.
	ErrUnknownTarget = errors.New("seek target out of known bounds")
	// ErrSeekInterrupted is returned when a seek's context ends between steps.
	ErrSeekInterrupted = errors.New("seek interrupted")
	// ErrCorruptBackLink is returned when a back-link points outside the container.
	ErrCorruptBackLink = errors.New("back-link points outside container")
)

// Codec errors.
var (
	// ErrInvalidHeaderSize is returned when a count prefix or record header has the wrong length.
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrInvalidCodec is returned for an unknown payload compression name or type.
	ErrInvalidCodec = errors.New("invalid payload codec")
)

// Writer errors.
var (
	// ErrPayloadTooLarge is returned when a payload or record offset does not fit in 32 bits.
	ErrPayloadTooLarge = errors.New("payload exceeds 32-bit container limits")
	// ErrWriterClosed is returned when appending to a closed writer.
	ErrWriterClosed = errors.New("writer closed")
	// ErrWriterLocked is returned when another writer holds the container lock.
	ErrWriterLocked = errors.New("container locked by another writer")
)
