package compress

import (
	"fmt"

	"github.com/arloliu/limg/errs"
	"github.com/arloliu/limg/format"
)

// Compressor compresses a single record payload.
//
// The returned slice is owned by the caller; the input is not modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
//
// It returns an error when the input is corrupted or was produced by a
// different algorithm. Implementations are safe for concurrent use.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrInvalidCodec, compressionType)
}

// CodecByName resolves a codec from its configuration name ("none", "zstd", "s2", "lz4").
func CodecByName(name string) (Codec, error) {
	compressionType, err := format.ParseCompressionType(name)
	if err != nil {
		return nil, err
	}

	return GetCodec(compressionType)
}
