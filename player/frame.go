package player

// Frame is one decoded record delivered by the reader.
type Frame struct {
	Position  int    // 1-based record position
	Total     int    // reader's total count when the frame was delivered
	Payload   []byte // payload after decompression
	Digest    uint64 // xxhash64 of Payload
	Duplicate bool   // an earlier frame had the same Digest
}

// FrameHandler receives every decoded frame.
type FrameHandler func(Frame)

// ErrorHandler receives failed reader operations and decode errors.
type ErrorHandler func(error)
