// Package collision detects repeated frames by payload digest.
package collision

// Tracker records the digest of every frame it sees and counts frames whose
// digest was already seen, e.g. a static camera producing identical images.
type Tracker struct {
	firstSeen  map[uint64]int   // digest → position of first occurrence
	reported   map[int]struct{} // positions already in duplicates
	duplicates []Duplicate      // in observation order
}

// Duplicate describes a frame identical to an earlier one.
type Duplicate struct {
	Position int // position of the repeated frame
	Original int // position where the payload first appeared
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		firstSeen: make(map[uint64]int),
		reported:  make(map[int]struct{}),
	}
}

// Track records the frame at position with the given digest and reports
// whether it repeats an earlier frame. A repeated frame is listed once no
// matter how often it is shown.
func (t *Tracker) Track(position int, digest uint64) bool {
	if original, exists := t.firstSeen[digest]; exists {
		if original != position {
			if _, seen := t.reported[position]; !seen {
				t.reported[position] = struct{}{}
				t.duplicates = append(t.duplicates, Duplicate{Position: position, Original: original})
			}

			return true
		}

		return false
	}

	t.firstSeen[digest] = position

	return false
}

// Duplicates returns the repeated frames in the order they were tracked.
func (t *Tracker) Duplicates() []Duplicate {
	return t.duplicates
}

// Unique returns the number of distinct payloads seen.
func (t *Tracker) Unique() int {
	return len(t.firstSeen)
}

// Reset clears all tracked digests but keeps allocated memory.
func (t *Tracker) Reset() {
	clear(t.firstSeen)
	clear(t.reported)
	t.duplicates = t.duplicates[:0]
}
