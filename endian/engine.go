// Package endian provides the byte order used by the limg container format.
//
// The container is always little-endian. The EndianEngine interface combines
// binary.ByteOrder and binary.AppendByteOrder so the codec can both decode
// fixed-size fields in place and append encoded fields to a growing buffer
// without a temporary slice:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, backLink)
//	buf = engine.AppendUint32(buf, payloadLength)
//
// All functions in this package are safe for concurrent use.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness reports the host byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian, in which
// case container fields match the in-memory layout.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetContainerEngine returns the engine every container field is encoded with.
func GetContainerEngine() EndianEngine {
	return GetLittleEndianEngine()
}
