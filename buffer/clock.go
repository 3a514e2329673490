package buffer

// clockReplacer implements the clock (second chance) policy.
// Each frame has a reference bit, set whenever the frame is pinned.
// The hand sweeps the frames in pool order: an unpinned frame with the bit set
// has its bit cleared and is skipped, the first unpinned frame with the bit
// clear is the victim.
// Unpinning does not clear the bit, so a released frame survives one more sweep.
type clockReplacer struct {
	refBits []bool
	hand    int
}

func newClockReplacer(size int) *clockReplacer {
	return &clockReplacer{
		refBits: make([]bool, size),
	}
}

func (r *clockReplacer) accessed(frame int) {
	r.refBits[frame] = true
}

func (r *clockReplacer) released(int) {}

// victim sweeps at most two full turns of the clock.
// After the first turn every unpinned frame has its reference bit cleared,
// so if the second turn finds nothing, every frame is pinned.
func (r *clockReplacer) victim(frames []*Buffer) (int, int, bool) {
	n := len(frames)
	for steps := 1; steps <= 2*n; steps++ {
		i := r.hand

		if !frames[i].isPinned() {
			if !r.refBits[i] {
				// the hand stays on the victim
				return i, steps, true
			}

			r.refBits[i] = false
		}

		r.hand = (r.hand + 1) % n
	}

	return 0, 2 * n, false
}
