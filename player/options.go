package player

import (
	"fmt"
	"time"

	"github.com/arloliu/limg/compress"
	"github.com/arloliu/limg/internal/options"
)

// DefaultInterval is the delay between frames during playback.
const DefaultInterval = 20 * time.Millisecond

// Option configures a Player.
type Option = options.Option[*Player]

// WithInterval sets the delay between frames during playback.
func WithInterval(d time.Duration) Option {
	return options.New(func(p *Player) error {
		if d <= 0 {
			return fmt.Errorf("invalid playback interval %s: must be positive", d)
		}
		p.interval = d

		return nil
	})
}

// WithDecompressor decodes every payload before it becomes a Frame.
// Producer and consumer must agree on the codec; the container does not
// record it.
func WithDecompressor(d compress.Decompressor) Option {
	return options.NoError(func(p *Player) {
		p.decompressor = d
	})
}

// WithFrameHandler sets the function that receives decoded frames.
func WithFrameHandler(h FrameHandler) Option {
	return options.NoError(func(p *Player) {
		p.onFrame = h
	})
}

// WithErrorHandler sets the function that receives asynchronous errors.
func WithErrorHandler(h ErrorHandler) Option {
	return options.NoError(func(p *Player) {
		p.onError = h
	})
}
