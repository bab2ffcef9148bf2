package container

import (
	"github.com/arloliu/limg/compress"
	"github.com/arloliu/limg/internal/options"
)

// ReaderOption configures a Reader.
type ReaderOption = options.Option[*Reader]

// WithSourceOpener replaces the function used to open the container file.
// It is mainly useful for serving containers from memory or injecting faults.
func WithSourceOpener(open SourceOpener) ReaderOption {
	return options.NoError(func(r *Reader) {
		if open != nil {
			r.openSource = open
		}
	})
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*writerConfig]

type writerConfig struct {
	declaredCount  uint32
	finalizeCount  bool
	compressor     compress.Compressor
	syncEachRecord bool
}

// WithDeclaredCount writes count into the prefix at creation time, for
// producers that know the final number of records up front.
func WithDeclaredCount(count uint32) WriterOption {
	return options.NoError(func(c *writerConfig) {
		c.declaredCount = count
	})
}

// WithFinalizeCount makes Close patch the count prefix with the number of
// records actually written.
func WithFinalizeCount(enabled bool) WriterOption {
	return options.NoError(func(c *writerConfig) {
		c.finalizeCount = enabled
	})
}

// WithCompressor compresses each payload before it is framed.
func WithCompressor(c compress.Compressor) WriterOption {
	return options.NoError(func(cfg *writerConfig) {
		cfg.compressor = c
	})
}

// WithSyncEachRecord fsyncs after every Append so a concurrent reader never
// observes a torn record after a crash.
func WithSyncEachRecord(enabled bool) WriterOption {
	return options.NoError(func(c *writerConfig) {
		c.syncEachRecord = enabled
	})
}
