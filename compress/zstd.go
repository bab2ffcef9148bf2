package compress

// ZstdCompressor provides Zstandard compression for record payloads.
//
// It gives the best ratio of the built-in codecs and is the usual choice for
// archived recordings that are played back far more often than written.
//
// The implementation is pure Go (klauspost/compress) by default. Building
// with the gozstd tag and cgo enabled switches to the libzstd binding
// (valyala/gozstd).
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec with default settings.
//
// Example:
//
//	codec := compress.NewZstdCompressor()
//	packed, err := codec.Compress(frame)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
