package section

import "math"

// offsets and section sizes in the container file
const (
	CountSize         = 4              // count prefix size in bytes
	HeaderSize        = 8              // record header size in bytes
	FirstRecordOffset = CountSize      // byte offset of the first record header
	NoBackLink        = 0              // back-link value of the first record
	MaxOffset         = math.MaxUint32 // largest addressable record offset
	MaxPayloadLength  = math.MaxUint32 // largest payload a header can describe
	MaxRecordCount    = math.MaxUint32 // largest count the prefix can declare
)

// field offsets inside a record header
const (
	backLinkOffset      = 0
	payloadLengthOffset = 4
)
