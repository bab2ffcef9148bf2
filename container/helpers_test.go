package container

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/limg/section"
)

const testTimeout = 5 * time.Second

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)

	return ctx
}

// memSource serves a container from memory.
type memSource struct {
	mu   sync.Mutex
	data []byte
}

func (m *memSource) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return bytes.NewReader(m.data).ReadAt(p, off)
}

func (m *memSource) Size() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.data)), nil
}

func (m *memSource) Close() error { return nil }

func (m *memSource) append(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = append(m.data, data...)
}

func (m *memSource) setCount(count uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.data, section.EncodeCount(count))
}

// gatedSource blocks every record read until the gate is closed.
type gatedSource struct {
	Source
	entered chan struct{}
	gate    chan struct{}
}

func newGatedSource(src Source) *gatedSource {
	return &gatedSource{
		Source:  src,
		entered: make(chan struct{}, 64),
		gate:    make(chan struct{}),
	}
}

func (g *gatedSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= section.FirstRecordOffset {
		g.entered <- struct{}{}
		<-g.gate
	}

	return g.Source.ReadAt(p, off)
}

// failingSource fails reads at chosen offsets.
type failingSource struct {
	Source
	mu     sync.Mutex
	failAt map[int64]error
}

var errInjected = errors.New("injected read failure")

func (f *failingSource) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	err, ok := f.failAt[off]
	f.mu.Unlock()

	if ok {
		return 0, err
	}

	return f.Source.ReadAt(p, off)
}

func (f *failingSource) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()

	clear(f.failAt)
}

func encodeContainer(t *testing.T, payloads ...string) []byte {
	t.Helper()

	raw := make([][]byte, len(payloads))
	for i, p := range payloads {
		raw[i] = []byte(p)
	}

	data, err := Encode(raw)
	require.NoError(t, err)

	return data
}

// withoutCount zeroes the count prefix, as a recorder that is still writing would.
func withoutCount(data []byte) []byte {
	out := append([]byte(nil), data...)
	copy(out, section.EncodeCount(0))

	return out
}

func newSourceReader(t *testing.T, src Source) *Reader {
	t.Helper()

	r, err := NewReader("mem.limg", WithSourceOpener(func(string) (Source, error) {
		return src, nil
	}))
	require.NoError(t, err)

	return r
}

func openReader(t *testing.T, src Source) *Reader {
	t.Helper()

	r := newSourceReader(t, src)
	ev, err := r.Await(testContext(t), r.Open)
	require.NoError(t, err)
	require.Equal(t, EventOpened, ev.Kind)

	return r
}

func openMem(t *testing.T, data []byte) *Reader {
	t.Helper()

	return openReader(t, &memSource{data: data})
}

func advance(t *testing.T, r *Reader) string {
	t.Helper()

	ev, err := r.Await(testContext(t), r.Advance)
	require.NoError(t, err)
	require.Equal(t, EventData, ev.Kind)

	return string(ev.Payload)
}

func retreat(t *testing.T, r *Reader) string {
	t.Helper()

	ev, err := r.Await(testContext(t), r.Retreat)
	require.NoError(t, err)
	require.Equal(t, EventData, ev.Kind)

	return string(ev.Payload)
}

func seek(t *testing.T, r *Reader, target int) (Event, error) {
	t.Helper()

	return r.Await(testContext(t), func(ctx context.Context) error {
		return r.SeekTo(ctx, target)
	})
}

// eventLog collects every event delivered to a reader.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) handle(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, ev)
}

func (l *eventLog) payloads() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string
	for _, ev := range l.events {
		if ev.Kind == EventData {
			out = append(out, string(ev.Payload))
		}
	}

	return out
}

func (l *eventLog) count(kind EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, ev := range l.events {
		if ev.Kind == kind {
			n++
		}
	}

	return n
}
