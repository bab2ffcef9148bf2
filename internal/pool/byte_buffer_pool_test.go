package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, cap(bb.B))
}

func TestByteBuffer_Resize(t *testing.T) {
	t.Run("within capacity", func(t *testing.T) {
		bb := NewByteBuffer(64)
		first := bb.Resize(16)

		assert.Len(t, first, 16)
		assert.Equal(t, 64, cap(bb.B))
		assert.True(t, &first[0] == &bb.Bytes()[0], "Resize should reuse the backing array")
	})

	t.Run("beyond capacity", func(t *testing.T) {
		bb := NewByteBuffer(8)
		out := bb.Resize(100)

		assert.Len(t, out, 100)
		assert.GreaterOrEqual(t, cap(bb.B), 100)
	})

	t.Run("shrink", func(t *testing.T) {
		bb := NewByteBuffer(8)
		bb.Resize(8)
		assert.Len(t, bb.Resize(0), 0)
	})
}

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(4)

	n, err := bb.Write([]byte("header"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	_, err = bb.Write([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, []byte("headerpayload"), bb.Bytes())

	var out bytes.Buffer
	written, err := bb.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(13), written)
	assert.Equal(t, "headerpayload", out.String())

	capBefore := cap(bb.B)
	bb.Reset()
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, capBefore, cap(bb.B))
}

func TestByteBufferPool_GetPut(t *testing.T) {
	p := NewByteBufferPool(32, 128)

	bb := p.Get()
	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())

	_, _ = bb.Write([]byte("data"))
	p.Put(bb)

	again := p.Get()
	require.NotNil(t, again)
	assert.Equal(t, 0, again.Len(), "pooled buffers must come back empty")

	p.Put(nil)
}

func TestByteBufferPool_DropsOversized(t *testing.T) {
	p := NewByteBufferPool(8, 16)

	bb := p.Get()
	bb.Resize(1024)
	p.Put(bb)

	// an oversized buffer is never handed out again
	for i := 0; i < 10; i++ {
		got := p.Get()
		assert.LessOrEqual(t, cap(got.B), 16)
	}
}

func TestDefaultPools(t *testing.T) {
	scratch := GetScratchBuffer()
	require.NotNil(t, scratch)
	assert.Equal(t, 0, scratch.Len())
	PutScratchBuffer(scratch)

	record := GetRecordBuffer()
	require.NotNil(t, record)
	assert.Equal(t, 0, record.Len())
	PutRecordBuffer(record)
}
