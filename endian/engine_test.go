package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestCheckEndianness(t *testing.T) {
	require := require.New(t)

	var probe uint16 = 0x0102
	first := (*[2]byte)(unsafe.Pointer(&probe))[0]

	switch first {
	case 0x01:
		require.Equal(binary.BigEndian, CheckEndianness())
		require.False(IsNativeLittleEndian())
	case 0x02:
		require.Equal(binary.LittleEndian, CheckEndianness())
		require.True(IsNativeLittleEndian())
	default:
		require.Failf("unexpected byte value", "got: %v", first)
	}
}

func TestGetContainerEngine(t *testing.T) {
	engine := GetContainerEngine()
	require.Equal(t, binary.LittleEndian, engine)

	buf := engine.AppendUint32(nil, 0x04030201)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf)
	require.Equal(t, uint32(0x04030201), engine.Uint32(buf))
}
