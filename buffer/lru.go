package buffer

// lruReplacer evicts the unpinned frame that was accessed least recently.
// Accesses are stamped with a logical clock that is bumped on every pin and unpin,
// so that two accesses never share a timestamp.
type lruReplacer struct {
	lastTouched []uint64
	clock       uint64
}

func newLRUReplacer(size int) *lruReplacer {
	return &lruReplacer{
		lastTouched: make([]uint64, size),
	}
}

func (r *lruReplacer) touch(frame int) {
	r.clock++
	r.lastTouched[frame] = r.clock
}

func (r *lruReplacer) accessed(frame int) {
	r.touch(frame)
}

func (r *lruReplacer) released(frame int) {
	r.touch(frame)
}

// victim scans every frame and returns the unpinned one with the oldest timestamp.
// On equal timestamps the first frame in pool order wins.
func (r *lruReplacer) victim(frames []*Buffer) (int, int, bool) {
	victim := -1
	for i, b := range frames {
		if b.isPinned() {
			continue
		}

		if victim == -1 || r.lastTouched[i] < r.lastTouched[victim] {
			victim = i
		}
	}

	if victim == -1 {
		return 0, len(frames), false
	}

	return victim, len(frames), true
}

