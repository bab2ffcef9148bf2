package container

// EventKind identifies what an Event reports.
type EventKind uint8

const (
	EventNone   EventKind = iota // EventNone is returned by Await when nothing was emitted.
	EventOpened                  // EventOpened reports a successful Open.
	EventData                    // EventData carries the payload of the record just reached.
	EventError                   // EventError reports a failed operation.
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "none"
	case EventOpened:
		return "opened"
	case EventData:
		return "data"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Op identifies the operation an Event belongs to.
type Op uint8

const (
	OpOpen Op = iota + 1
	OpAdvance
	OpRetreat
	OpSeek
)

func (o Op) String() string {
	switch o {
	case OpOpen:
		return "open"
	case OpAdvance:
		return "advance"
	case OpRetreat:
		return "retreat"
	case OpSeek:
		return "seek"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribed handlers when an operation completes.
type Event struct {
	Kind EventKind
	Op   Op
	// Payload is the record payload for EventData. It is owned by the receiver.
	Payload []byte
	// Position is the reader position after the operation.
	Position int
	// Total is TotalCount after the operation.
	Total int
	// Err is set for EventError and wraps one of the errs sentinels.
	Err error
}

// Handler receives events. Handlers run on the goroutine that completed the
// operation, after the in-flight flag is cleared, so a handler may issue
// the next operation. Handlers must not block for long: the next event is
// not delivered until they return.
type Handler func(Event)
