package player

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/limg/compress"
	"github.com/arloliu/limg/container"
	"github.com/arloliu/limg/errs"
	"github.com/arloliu/limg/format"
	"github.com/arloliu/limg/internal/collision"
	"github.com/arloliu/limg/internal/hash"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func writeContainer(t *testing.T, payloads []string, opts ...container.WriterOption) string {
	t.Helper()

	raw := make([][]byte, len(payloads))
	for i, p := range payloads {
		raw[i] = []byte(p)
	}

	path := filepath.Join(t.TempDir(), "clip.limg")
	require.NoError(t, container.WriteFile(path, raw, opts...))

	return path
}

// frameSink buffers frames so tests can wait for them in order.
type frameSink chan Frame

func (s frameSink) handle(f Frame) { s <- f }

func (s frameSink) next(t *testing.T) Frame {
	t.Helper()

	select {
	case f := <-s:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return Frame{}
	}
}

func newPlayer(t *testing.T, path string, opts ...Option) *Player {
	t.Helper()

	r, err := container.NewReader(path)
	require.NoError(t, err)

	p, err := New(r, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		p.Stop()
		_ = p.Wait(context.Background())
		_ = p.Close()
	})

	return p
}

func TestNew_InvalidInterval(t *testing.T) {
	r, err := container.NewReader("unused.limg")
	require.NoError(t, err)

	_, err = New(r, WithInterval(0))
	require.Error(t, err)

	_, err = New(nil)
	require.Error(t, err)
}

func TestPlayer_Start(t *testing.T) {
	sink := make(frameSink, 8)
	p := newPlayer(t, writeContainer(t, []string{"A", "BB", "C"}), WithFrameHandler(sink.handle))

	first, err := p.Start(testContext(t))
	require.NoError(t, err)
	require.Equal(t, 1, first.Position)
	require.Equal(t, 3, first.Total)
	require.Equal(t, []byte("A"), first.Payload)
	require.Equal(t, hash.Digest([]byte("A")), first.Digest)
	require.Equal(t, first, sink.next(t))

	// starting again keeps the current frame
	again, err := p.Start(testContext(t))
	require.NoError(t, err)
	require.Equal(t, first, again)
}

func TestPlayer_PlayToEnd(t *testing.T) {
	payloads := []string{"f1", "f2", "f3", "f4", "f5"}
	sink := make(frameSink, 8)
	p := newPlayer(t, writeContainer(t, payloads),
		WithInterval(time.Millisecond),
		WithFrameHandler(sink.handle),
	)

	ctx := testContext(t)
	_, err := p.Start(ctx)
	require.NoError(t, err)
	sink.next(t)

	require.NoError(t, p.Play(ctx))
	for i := 2; i <= len(payloads); i++ {
		f := sink.next(t)
		require.Equal(t, i, f.Position)
		require.Equal(t, payloads[i-1], string(f.Payload))
	}

	require.Eventually(t, func() bool { return !p.Playing() }, time.Second, time.Millisecond)
	require.Equal(t, len(payloads), p.Current().Position)

	// nothing left to play
	require.NoError(t, p.Play(ctx))
	require.False(t, p.Playing())
}

func TestPlayer_Stop(t *testing.T) {
	sink := make(frameSink, 8)
	p := newPlayer(t, writeContainer(t, []string{"A", "BB", "C"}),
		WithInterval(time.Hour),
		WithFrameHandler(sink.handle),
	)

	ctx := testContext(t)
	_, err := p.Start(ctx)
	require.NoError(t, err)
	sink.next(t)

	require.NoError(t, p.Play(ctx))
	require.Equal(t, 2, sink.next(t).Position)
	require.NoError(t, p.Wait(ctx))

	require.True(t, p.Playing())
	p.Stop()
	require.False(t, p.Playing())
	require.Equal(t, 2, p.Current().Position)
}

func TestPlayer_Navigation(t *testing.T) {
	sink := make(frameSink, 8)
	p := newPlayer(t, writeContainer(t, []string{"A", "BB", "C", "DD"}), WithFrameHandler(sink.handle))

	ctx := testContext(t)
	_, err := p.Start(ctx)
	require.NoError(t, err)
	sink.next(t)

	require.NoError(t, p.Seek(ctx, 4))
	require.Equal(t, "DD", string(sink.next(t).Payload))

	require.NoError(t, p.Previous(ctx))
	require.Equal(t, "C", string(sink.next(t).Payload))

	require.NoError(t, p.Next(ctx))
	require.Equal(t, "DD", string(sink.next(t).Payload))
	require.NoError(t, p.Wait(ctx))

	require.NoError(t, p.Reset())
	require.Equal(t, Frame{}, p.Current())
	require.ErrorIs(t, p.Previous(ctx), errs.ErrNoPreviousRecord)
}

func TestPlayer_Decompression(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionZstd)
	require.NoError(t, err)

	payloads := []string{"aaaaaaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbbbbbb"}
	path := writeContainer(t, payloads, container.WithCompressor(codec))

	sink := make(frameSink, 8)
	p := newPlayer(t, path, WithDecompressor(codec), WithFrameHandler(sink.handle))

	ctx := testContext(t)
	first, err := p.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, payloads[0], string(first.Payload))
	sink.next(t)

	require.NoError(t, p.Next(ctx))
	require.Equal(t, payloads[1], string(sink.next(t).Payload))
}

func TestPlayer_DecodeErrorStopsPlayback(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionLZ4)
	require.NoError(t, err)

	errCh := make(chan error, 4)
	p := newPlayer(t, writeContainer(t, []string{"x", "y"}),
		WithDecompressor(codec),
		WithErrorHandler(func(err error) { errCh <- err }),
	)

	ctx := testContext(t)
	_, err = p.reader.Await(ctx, p.reader.Open)
	require.NoError(t, err)

	require.NoError(t, p.Play(ctx))
	require.NoError(t, p.Wait(ctx))

	select {
	case err := <-errCh:
		require.ErrorContains(t, err, "decode frame 1")
	case <-ctx.Done():
		t.Fatal("decode error was not reported")
	}
	require.False(t, p.Playing())
}

func TestPlayer_StartDecodeError(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionZstd)
	require.NoError(t, err)

	p := newPlayer(t, writeContainer(t, []string{"not zstd"}), WithDecompressor(codec))

	_, err = p.Start(testContext(t))
	require.ErrorContains(t, err, "decode frame 1")
	require.Equal(t, Frame{}, p.Current())
}

func TestPlayer_ReaderErrorReported(t *testing.T) {
	errCh := make(chan error, 1)
	p := newPlayer(t, filepath.Join(t.TempDir(), "missing.limg"),
		WithErrorHandler(func(err error) { errCh <- err }),
	)

	_, err := p.Start(testContext(t))
	require.ErrorIs(t, err, errs.ErrIO)
	require.ErrorIs(t, <-errCh, errs.ErrIO)
}

func TestPlayer_Duplicates(t *testing.T) {
	sink := make(frameSink, 8)
	p := newPlayer(t, writeContainer(t, []string{"A", "B", "A", "A"}),
		WithInterval(time.Millisecond),
		WithFrameHandler(sink.handle),
	)

	ctx := testContext(t)
	_, err := p.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Play(ctx))

	var repeated []int
	for i := 0; i < 4; i++ {
		if f := sink.next(t); f.Duplicate {
			repeated = append(repeated, f.Position)
		}
	}

	require.Equal(t, []int{3, 4}, repeated)
	require.Eventually(t, func() bool { return !p.Playing() }, time.Second, time.Millisecond)

	// stepping back and forth shows the repeated frames again
	steps := []struct {
		step func(context.Context) error
		want int
	}{
		{p.Previous, 3},
		{p.Previous, 2},
		{p.Next, 3},
		{p.Next, 4},
	}
	for _, s := range steps {
		require.NoError(t, s.step(ctx))
		require.NoError(t, p.Wait(ctx))

		f := sink.next(t)
		require.Equal(t, s.want, f.Position)
		require.Equal(t, s.want != 2, f.Duplicate)
	}

	require.Equal(t, []collision.Duplicate{
		{Position: 3, Original: 1},
		{Position: 4, Original: 1},
	}, p.Duplicates())
}
