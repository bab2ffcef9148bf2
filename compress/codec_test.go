package compress

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/arloliu/limg/errs"
	"github.com/arloliu/limg/format"
	"github.com/stretchr/testify/require"
)

func testPayloads(t *testing.T) map[string][]byte {
	t.Helper()

	random := make([]byte, 4096)
	_, err := rand.Read(random)
	require.NoError(t, err)

	return map[string][]byte{
		"single byte":  {0x42},
		"repetitive":   bytes.Repeat([]byte("frame-0001"), 1000),
		"random":       random,
		"zero filled":  make([]byte, 64*1024),
		"small string": []byte("BB"),
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	types := []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	}

	for _, typ := range types {
		codec, err := GetCodec(typ)
		require.NoError(t, err)

		for name, payload := range testPayloads(t) {
			t.Run(typ.String()+"/"+name, func(t *testing.T) {
				packed, err := codec.Compress(payload)
				require.NoError(t, err)

				restored, err := codec.Decompress(packed)
				require.NoError(t, err)
				require.Equal(t, payload, restored)
			})
		}
	}
}

func TestCodecs_Shrink(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefgh"), 4096)

	for _, typ := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		codec, err := GetCodec(typ)
		require.NoError(t, err)

		packed, err := codec.Compress(payload)
		require.NoError(t, err)
		require.Less(t, len(packed), len(payload), typ.String())
	}
}

func TestCodecs_EmptyInput(t *testing.T) {
	for _, typ := range []format.CompressionType{format.CompressionS2, format.CompressionLZ4} {
		codec, err := GetCodec(typ)
		require.NoError(t, err)

		packed, err := codec.Compress(nil)
		require.NoError(t, err)
		require.Empty(t, packed)

		restored, err := codec.Decompress(nil)
		require.NoError(t, err)
		require.Empty(t, restored)
	}
}

func TestLZ4_MalformedFrame(t *testing.T) {
	codec := NewLZ4Compressor()

	_, err := codec.Decompress([]byte{0x01, 0x02})
	require.ErrorIs(t, err, errLZ4Frame)

	_, err = codec.Decompress([]byte{0x04, 0x00, 0x00, 0x00, 0x07, 0x01})
	require.ErrorIs(t, err, errLZ4Frame)

	_, err = codec.Decompress([]byte{0x04, 0x00, 0x00, 0x00, lz4ModeRaw, 0x01})
	require.ErrorIs(t, err, errLZ4Frame)
}

func TestZstd_CorruptInput(t *testing.T) {
	_, err := NewZstdCompressor().Decompress([]byte("definitely not zstd"))
	require.Error(t, err)
}

func TestNoOp_SharesInput(t *testing.T) {
	payload := []byte("frame")
	out, err := NewNoOpCompressor().Compress(payload)
	require.NoError(t, err)
	require.Same(t, &payload[0], &out[0])
}

func TestGetCodec(t *testing.T) {
	_, err := GetCodec(format.CompressionType(0x7f))
	require.ErrorIs(t, err, errs.ErrInvalidCodec)

	codec, err := CodecByName("lz4")
	require.NoError(t, err)
	require.IsType(t, LZ4Compressor{}, codec)

	_, err = CodecByName("brotli")
	require.ErrorIs(t, err, errs.ErrInvalidCodec)
}
