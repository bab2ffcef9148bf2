// Package limg reads and writes linked image containers: append-only files
// holding a sequence of opaque frames, each record linked back to the one
// before it.
//
// A container can be read forward one record at a time, stepped backward
// through the back-links, and positioned anywhere by seeking. Files that
// are still being recorded can be followed while they grow.
//
// # Container Layout
//
//	[count u32][record 1][record 2]...[record N]
//	record = [backLink u32][payloadLength u32][payload]
//
// All integers are little-endian. count is 0 while the number of records is
// unknown; backLink is the offset of the previous record header, 0 for the
// first record.
//
// # Basic Usage
//
// Writing a container:
//
//	err := limg.Pack("clip.limg", frames, format.CompressionZstd)
//
// Reading it back:
//
//	r, err := limg.Open(ctx, "clip.limg")
//	defer r.Close()
//
//	for r.HasNext() && !r.AtProvisionalEnd() {
//	    ev, err := r.Await(ctx, r.Advance)
//	    ...
//	}
//
// Reader operations are asynchronous. Handlers registered with Subscribe
// receive an Event for each finished operation; Await is the synchronous
// form used above.
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the container,
// compress and player packages. For recording, fault injection and playback
// control, use those packages directly.
package limg

import (
	"context"

	"github.com/arloliu/limg/compress"
	"github.com/arloliu/limg/container"
	"github.com/arloliu/limg/format"
	"github.com/arloliu/limg/internal/hash"
	"github.com/arloliu/limg/player"
)

// Open creates a reader for filename and waits for it to open.
//
// Parameters:
//   - ctx: Bounds the wait for the open to finish
//   - filename: Container path
//   - opts: Reader options (see container.WithSourceOpener)
//
// Returns:
//   - *container.Reader: An open reader positioned before the first record
//   - error: errs.ErrIO if the file cannot be opened or is shorter than the count prefix
//
// Example:
//
//	r, err := limg.Open(ctx, "clip.limg")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
func Open(ctx context.Context, filename string, opts ...container.ReaderOption) (*container.Reader, error) {
	r, err := container.NewReader(filename, opts...)
	if err != nil {
		return nil, err
	}

	if _, err := r.Await(ctx, r.Open); err != nil {
		return nil, err
	}

	return r, nil
}

// Pack writes payloads to path as a complete container, compressing every
// payload with the given codec. The file is replaced atomically.
//
// Parameters:
//   - path: Destination path
//   - payloads: Frames in playback order
//   - compression: Payload codec; readers must decode with the same one
//
// Returns:
//   - error: errs.ErrInvalidCodec, errs.ErrPayloadTooLarge or an I/O error
func Pack(path string, payloads [][]byte, compression format.CompressionType) error {
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return err
	}

	return container.WriteFile(path, payloads, container.WithCompressor(codec))
}

// Record creates a container for incremental writing. The count prefix is
// left unknown and patched with the real count on Close, so readers can
// follow the file while it grows.
//
// Example:
//
//	w, err := limg.Record("live.limg", format.CompressionS2)
//	for frame := range frames {
//	    if _, err := w.Append(frame); err != nil {
//	        ...
//	    }
//	}
//	err = w.Close()
func Record(path string, compression format.CompressionType) (*container.Writer, error) {
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	return container.Create(path, container.WithCompressor(codec), container.WithFinalizeCount(true))
}

// NewPlayer opens filename and returns a player showing its first frame.
// Payloads are decoded with the given codec before they reach handler.
//
// Parameters:
//   - ctx: Bounds the open and the first frame
//   - filename: Container path
//   - compression: Codec the container was written with
//   - handler: Receives every frame, including the first
//   - opts: Additional player options (see player.WithInterval)
//
// Returns:
//   - *player.Player: The player, positioned at frame 1
//   - error: An open, read or decode error
func NewPlayer(
	ctx context.Context, filename string, compression format.CompressionType,
	handler player.FrameHandler, opts ...player.Option,
) (*player.Player, error) {
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	r, err := container.NewReader(filename)
	if err != nil {
		return nil, err
	}

	all := append([]player.Option{
		player.WithDecompressor(codec),
		player.WithFrameHandler(handler),
	}, opts...)

	p, err := player.New(r, all...)
	if err != nil {
		return nil, err
	}

	if _, err := p.Start(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}

	return p, nil
}

// Digest returns the 64-bit xxHash of a payload, the fingerprint used to
// detect repeated frames.
func Digest(payload []byte) uint64 {
	return hash.Digest(payload)
}
