package buffer

// basicReplacer scans the pool once, starting after the last victim,
// and returns the first unpinned frame.
// It keeps no access history.
type basicReplacer struct {
	cursor int
}

func (r *basicReplacer) accessed(int) {}

func (r *basicReplacer) released(int) {}

func (r *basicReplacer) victim(frames []*Buffer) (int, int, bool) {
	n := len(frames)
	for steps := 1; steps <= n; steps++ {
		i := r.cursor
		r.cursor = (r.cursor + 1) % n

		if !frames[i].isPinned() {
			return i, steps, true
		}
	}

	return 0, n, false
}
