package section

import (
	"github.com/arloliu/limg/endian"
	"github.com/arloliu/limg/errs"
)

var engine = endian.GetContainerEngine()

// RecordHeader is the fixed-size header in front of every record payload.
type RecordHeader struct {
	// BackLink is the absolute byte offset of the previous record's header,
	// or NoBackLink for the first record.
	BackLink uint32 // byte offset 0-3
	// PayloadLength is the number of payload bytes following the header.
	PayloadLength uint32 // byte offset 4-7
}

// DecodeCount decodes the count prefix. b must hold at least CountSize bytes.
func DecodeCount(b []byte) uint32 {
	return engine.Uint32(b[:CountSize])
}

// EncodeCount returns the count prefix for the given record count.
func EncodeCount(count uint32) []byte {
	return engine.AppendUint32(make([]byte, 0, CountSize), count)
}

// DecodeHeader decodes a record header into its back-link and payload length.
// b must hold at least HeaderSize bytes.
func DecodeHeader(b []byte) (backLink uint32, payloadLength uint32) {
	return engine.Uint32(b[backLinkOffset:]), engine.Uint32(b[payloadLengthOffset:])
}

// AppendHeader appends an encoded record header to dst.
func AppendHeader(dst []byte, backLink, payloadLength uint32) []byte {
	dst = engine.AppendUint32(dst, backLink)
	return engine.AppendUint32(dst, payloadLength)
}

// EncodeHeader returns an encoded record header.
func EncodeHeader(backLink, payloadLength uint32) []byte {
	return AppendHeader(make([]byte, 0, HeaderSize), backLink, payloadLength)
}

// ParseCount parses the count prefix, checking the input length.
func ParseCount(data []byte) (uint32, error) {
	if len(data) < CountSize {
		return 0, errs.ErrInvalidHeaderSize
	}

	return DecodeCount(data), nil
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the header (must be exactly 8 bytes)
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is not 8 bytes
func (h *RecordHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.BackLink, h.PayloadLength = DecodeHeader(data)

	return nil
}

// Bytes serializes the header.
func (h RecordHeader) Bytes() []byte {
	return EncodeHeader(h.BackLink, h.PayloadLength)
}

// HasBackLink reports whether a previous record exists.
func (h RecordHeader) HasBackLink() bool {
	return h.BackLink != NoBackLink
}

// RecordSize returns the size of the whole record, header included.
func (h RecordHeader) RecordSize() int64 {
	return HeaderSize + int64(h.PayloadLength)
}

// ParseRecordHeader parses a RecordHeader from the start of a byte slice.
//
// Parameters:
//   - data: Byte slice containing the header (must be at least 8 bytes)
//
// Returns:
//   - RecordHeader: Parsed header
//   - error: ErrInvalidHeaderSize if data is too short
func ParseRecordHeader(data []byte) (RecordHeader, error) {
	if len(data) < HeaderSize {
		return RecordHeader{}, errs.ErrInvalidHeaderSize
	}

	h := RecordHeader{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return RecordHeader{}, err
	}

	return h, nil
}
