package collision

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	tr := NewTracker()

	require.False(t, tr.Track(1, 0xaa))
	require.False(t, tr.Track(2, 0xbb))
	require.True(t, tr.Track(3, 0xaa))
	require.True(t, tr.Track(4, 0xbb))
	require.False(t, tr.Track(5, 0xcc))

	want := []Duplicate{{Position: 3, Original: 1}, {Position: 4, Original: 2}}
	if diff := cmp.Diff(want, tr.Duplicates()); diff != "" {
		t.Fatalf("duplicates mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 3, tr.Unique())
}

func TestTracker_SamePositionTwice(t *testing.T) {
	tr := NewTracker()

	// revisiting a frame (e.g. after a retreat) is not a duplicate
	require.False(t, tr.Track(1, 0xaa))
	require.False(t, tr.Track(1, 0xaa))
	require.Empty(t, tr.Duplicates())
}

func TestTracker_RepeatedFrameListedOnce(t *testing.T) {
	tr := NewTracker()

	require.False(t, tr.Track(1, 0xaa))
	require.False(t, tr.Track(2, 0xbb))
	require.True(t, tr.Track(3, 0xaa))
	// back and forth over the repeated frame
	require.False(t, tr.Track(2, 0xbb))
	require.True(t, tr.Track(3, 0xaa))
	require.True(t, tr.Track(3, 0xaa))

	require.Equal(t, []Duplicate{{Position: 3, Original: 1}}, tr.Duplicates())
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Track(1, 0xaa)
	tr.Track(2, 0xaa)

	tr.Reset()

	require.Empty(t, tr.Duplicates())
	require.Equal(t, 0, tr.Unique())
	require.False(t, tr.Track(2, 0xaa))
	require.True(t, tr.Track(3, 0xaa))
	require.Len(t, tr.Duplicates(), 1)
}
