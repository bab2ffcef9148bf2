package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/limg/compress"
	"github.com/arloliu/limg/container"
	"github.com/arloliu/limg/errs"
	"github.com/arloliu/limg/internal/collision"
	"github.com/arloliu/limg/internal/hash"
	"github.com/arloliu/limg/internal/options"
)

// Player decodes reader events into frames and schedules playback.
type Player struct {
	reader       *container.Reader
	interval     time.Duration
	decompressor compress.Decompressor
	onFrame      FrameHandler
	onError      ErrorHandler

	mu          sync.Mutex
	ctx         context.Context //nolint: containedctx
	playing     bool
	timer       *time.Timer
	current     Frame
	decodeErr   error // decode failure of the last delivered record
	tracker     *collision.Tracker
	unsubscribe func()
}

// New creates a Player driving reader. The reader may be closed or open.
func New(reader *container.Reader, opts ...Option) (*Player, error) {
	if reader == nil {
		return nil, errors.New("player: nil reader")
	}

	p := &Player{
		reader:   reader,
		interval: DefaultInterval,
		ctx:      context.Background(),
		tracker:  collision.NewTracker(),
	}

	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	p.unsubscribe = reader.Subscribe(p.handleEvent)

	return p, nil
}

// Reader returns the underlying reader.
func (p *Player) Reader() *container.Reader {
	return p.reader
}

// Start opens the reader if needed and shows the first frame.
func (p *Player) Start(ctx context.Context) (Frame, error) {
	if p.reader.State() == container.StateClosed {
		if _, err := p.reader.Await(ctx, p.reader.Open); err != nil {
			return Frame{}, err
		}
	}

	if p.reader.CurrentPosition() != 0 {
		return p.Current(), nil
	}

	if _, err := p.reader.Await(ctx, p.reader.Advance); err != nil {
		return Frame{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.decodeErr != nil {
		return Frame{}, p.decodeErr
	}

	return p.current, nil
}

// Play advances through the container, one frame per interval, until the
// last frame, Stop, or an error. Playing at the last frame does nothing.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return nil
	}
	if !p.reader.HasNext() {
		p.mu.Unlock()
		return nil
	}
	p.playing = true
	p.ctx = ctx
	p.mu.Unlock()

	plog.Infof("play %s from %d", p.reader.Filename(), p.reader.CurrentPosition())

	err := p.reader.Advance(ctx)
	if err == nil || isBusy(err) {
		// a step in flight reschedules playback when it lands
		return nil
	}

	p.Stop()

	return err
}

// Stop halts playback. A step already in flight still delivers its frame.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.playing {
		plog.Debugf("playback stopped at %d", p.reader.CurrentPosition())
	}
	p.playing = false
}

// Playing reports whether playback is active.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing
}

// Next steps one frame forward.
func (p *Player) Next(ctx context.Context) error {
	return p.reader.Advance(ctx)
}

// Previous steps one frame back.
func (p *Player) Previous(ctx context.Context) error {
	return p.reader.Retreat(ctx)
}

// Seek jumps to the 1-based position n.
func (p *Player) Seek(ctx context.Context, n int) error {
	return p.reader.SeekTo(ctx, n)
}

// Reset stops playback and rewinds the reader before the first frame.
func (p *Player) Reset() error {
	p.Stop()

	if err := p.reader.Reset(); err != nil {
		return err
	}

	p.mu.Lock()
	p.current = Frame{}
	p.mu.Unlock()

	return nil
}

// Wait blocks until the reader operation outstanding at call time finishes.
func (p *Player) Wait(ctx context.Context) error {
	return p.reader.Wait(ctx)
}

// Current returns the last frame delivered, or the zero Frame.
func (p *Player) Current() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current
}

// Duplicates returns the frames seen so far whose payload repeated an
// earlier frame.
func (p *Player) Duplicates() []collision.Duplicate {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]collision.Duplicate(nil), p.tracker.Duplicates()...)
}

// Close stops playback, detaches from the reader and closes it.
func (p *Player) Close() error {
	p.Stop()

	p.mu.Lock()
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	p.mu.Unlock()

	return p.reader.Close()
}

func (p *Player) handleEvent(ev container.Event) {
	switch ev.Kind { //nolint: exhaustive
	case container.EventData:
		p.handleData(ev)
	case container.EventError:
		p.Stop()
		p.reportError(ev.Err)
	}
}

func (p *Player) handleData(ev container.Event) {
	payload := ev.Payload
	if p.decompressor != nil {
		decoded, err := p.decompressor.Decompress(payload)
		if err != nil {
			err = fmt.Errorf("decode frame %d: %w", ev.Position, err)

			p.mu.Lock()
			p.decodeErr = err
			p.stopLocked()
			p.mu.Unlock()

			p.reportError(err)

			return
		}
		payload = decoded
	}

	frame := Frame{
		Position: ev.Position,
		Total:    ev.Total,
		Payload:  payload,
		Digest:   hash.Digest(payload),
	}

	p.mu.Lock()
	frame.Duplicate = p.tracker.Track(frame.Position, frame.Digest)
	p.current = frame
	p.decodeErr = nil
	p.mu.Unlock()

	if p.onFrame != nil {
		p.onFrame(frame)
	}

	p.scheduleNext()
}

func (p *Player) scheduleNext() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return
	}
	if !p.reader.HasNext() {
		p.stopLocked()
		return
	}

	p.timer = time.AfterFunc(p.interval, p.tick)
}

func (p *Player) tick() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.timer = nil
	p.mu.Unlock()

	err := p.reader.Advance(ctx)
	if err == nil || isBusy(err) {
		return
	}

	p.Stop()
	p.reportError(err)
}

func (p *Player) reportError(err error) {
	plog.Warningf("%s: %v", p.reader.Filename(), err)

	if p.onError != nil {
		p.onError(err)
	}
}

func isBusy(err error) bool {
	return errors.Is(err, errs.ErrBusyAdvancing) || errors.Is(err, errs.ErrBusyRetreating)
}
