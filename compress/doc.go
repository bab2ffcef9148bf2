// Package compress provides payload codecs for limg containers.
//
// The container format never interprets payloads, so compression is an
// agreement between the recorder that appends frames and the player that
// shows them. The writer compresses each payload before it is framed, and
// the player decompresses each payload after the reader emits it. Offsets
// and lengths in record headers always describe the stored (compressed)
// bytes.
//
// # Supported Algorithms
//
//   - None: frames stored verbatim (PNG/JPEG frames are already compressed)
//   - Zstd: best ratio, suited to raw or lightly encoded frames
//   - S2: fastest encoding, suited to live recording
//   - LZ4: fastest decoding, suited to smooth playback
//
// # Usage
//
//	codec, err := compress.CodecByName("zstd")
//	if err != nil {
//	    return err
//	}
//
//	packed, _ := codec.Compress(frame)
//	frame, err = codec.Decompress(packed)
//
// All built-in codecs are stateless values and safe for concurrent use.
package compress
