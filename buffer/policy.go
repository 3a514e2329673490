package buffer

import (
	"fmt"
	"strings"
)

// Policy selects how the buffer manager picks a frame to reuse
// when the block to pin is not in the pool and no frame was ever used.
type Policy int

const (
	// PolicyBasic reuses the first unpinned frame found scanning the pool.
	PolicyBasic Policy = iota
	// PolicyClock gives recently used frames a second chance before reusing them.
	PolicyClock
	// PolicyLRU reuses the unpinned frame that was accessed least recently.
	PolicyLRU
)

var policyNames = [...]string{
	PolicyBasic: "basic",
	PolicyClock: "clock",
	PolicyLRU:   "lru",
}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return fmt.Sprintf("Policy(%d)", int(p))
	}

	return policyNames[p]
}

// ParsePolicy parses a policy name. "naive" is accepted as an alias of "basic".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic", "naive", "":
		return PolicyBasic, nil
	case "clock":
		return PolicyClock, nil
	case "lru":
		return PolicyLRU, nil
	}

	return 0, fmt.Errorf("unknown replacement policy %q", s)
}

// replacer holds the state of a replacement policy.
// Frames are identified by their index in the pool.
// Methods are called with the manager lock held.
type replacer interface {
	// accessed records that the frame has been pinned, either on a cache hit
	// or right after being assigned a block.
	accessed(frame int)
	// released records that a pin on the frame has been dropped.
	released(frame int)
	// victim picks an unpinned frame to reuse, and reports how many frames were inspected.
	// ok is false if every frame is pinned.
	victim(frames []*Buffer) (frame int, steps int, ok bool)
}

func (p Policy) newReplacer(size int) replacer {
	switch p {
	case PolicyBasic:
		return &basicReplacer{}
	case PolicyClock:
		return newClockReplacer(size)
	case PolicyLRU:
		return newLRUReplacer(size)
	}

	panic(fmt.Sprintf("buffer: unsupported replacement policy %s", p))
}
