package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/limg/endian"
	"github.com/pierrec/lz4/v4"
)

// lz4 payload framing: [u32 original length][u8 mode][block]
const (
	lz4PrefixSize = 5
	lz4ModeRaw    = 0x0 // block did not shrink, stored verbatim
	lz4ModeBlock  = 0x1
)

var errLZ4Frame = errors.New("lz4: malformed payload frame")

// lz4CompressorPool pools lz4.Compressor instances, whose hash tables are
// expensive to allocate per frame.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor favors decompression speed, which keeps playback cheap.
//
// Each compressed payload carries its original length so decompression can
// size the output exactly instead of guessing.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the payload as a single LZ4 block.
//
// Returns:
//   - []byte: framed payload (nil if input is empty)
//   - error: compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	engine := endian.GetContainerEngine()
	dst := make([]byte, lz4PrefixSize+lz4.CompressBlockBound(len(data)))
	engine.PutUint32(dst, uint32(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[lz4PrefixSize:])
	if err != nil {
		return nil, err
	}

	// incompressible input yields n == 0
	if n == 0 || n >= len(data) {
		dst[4] = lz4ModeRaw
		n = copy(dst[lz4PrefixSize:], data)
	} else {
		dst[4] = lz4ModeBlock
	}

	return dst[:lz4PrefixSize+n], nil
}

// Decompress restores a payload produced by Compress.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if len(data) < lz4PrefixSize {
		return nil, errLZ4Frame
	}

	size := int(endian.GetContainerEngine().Uint32(data))
	body := data[lz4PrefixSize:]

	switch data[4] {
	case lz4ModeRaw:
		if len(body) != size {
			return nil, errLZ4Frame
		}

		return append([]byte(nil), body...), nil
	case lz4ModeBlock:
		out := make([]byte, size)

		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}

		if n != size {
			return nil, errLZ4Frame
		}

		return out, nil
	default:
		return nil, errLZ4Frame
	}
}
