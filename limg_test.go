package limg

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/limg/errs"
	"github.com/arloliu/limg/format"
	"github.com/arloliu/limg/player"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func TestPackOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.limg")
	require.NoError(t, Pack(path, [][]byte{[]byte("A"), []byte("BB"), []byte("C")}, format.CompressionNone))

	ctx := testContext(t)
	r, err := Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 3, r.TotalCount())

	var got []string
	for r.HasNext() && !r.AtProvisionalEnd() {
		ev, err := r.Await(ctx, r.Advance)
		require.NoError(t, err)
		got = append(got, string(ev.Payload))
	}
	require.Equal(t, []string{"A", "BB", "C"}, got)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(testContext(t), filepath.Join(t.TempDir(), "missing.limg"))
	require.ErrorIs(t, err, errs.ErrIO)
}

func TestPack_InvalidCodec(t *testing.T) {
	err := Pack(filepath.Join(t.TempDir(), "x.limg"), nil, format.CompressionType(0x7f))
	require.ErrorIs(t, err, errs.ErrInvalidCodec)
}

func TestRecordNewPlayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.limg")

	w, err := Record(path, format.CompressionLZ4)
	require.NoError(t, err)
	for _, frame := range []string{"first frame", "second frame"} {
		_, err := w.Append([]byte(frame))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	frames := make(chan player.Frame, 4)
	p, err := NewPlayer(testContext(t), path, format.CompressionLZ4, func(f player.Frame) { frames <- f })
	require.NoError(t, err)
	defer p.Close()

	first := <-frames
	require.Equal(t, 1, first.Position)
	require.Equal(t, 2, first.Total)
	require.Equal(t, "first frame", string(first.Payload))
	require.Equal(t, Digest([]byte("first frame")), first.Digest)

	require.NoError(t, p.Next(testContext(t)))
	require.Equal(t, "second frame", string((<-frames).Payload))
}

func TestNewPlayer_DecodeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.limg")
	require.NoError(t, Pack(path, [][]byte{[]byte("x")}, format.CompressionNone))

	_, err := NewPlayer(testContext(t), path, format.CompressionZstd, func(player.Frame) {})
	require.Error(t, err)
}
