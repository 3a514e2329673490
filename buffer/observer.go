package buffer

import (
	"context"
	"log/slog"

	"github.com/cs4432/simpledb/types"
)

// EventKind is the kind of an Event emitted by the buffer manager.
type EventKind int

const (
	// EventHit: the pinned block was already in the pool.
	EventHit EventKind = iota
	// EventMiss: the pinned block had to be read into a frame.
	EventMiss
	// EventVictimChosen: the policy picked an assigned frame for reuse.
	EventVictimChosen
	// EventEvicted: a block left the pool.
	EventEvicted
	// EventPinFailed: every frame was pinned.
	EventPinFailed
	// EventFlushed: a dirty frame was written back on behalf of a transaction.
	EventFlushed
)

var eventNames = [...]string{
	EventHit:          "hit",
	EventMiss:         "miss",
	EventVictimChosen: "victim chosen",
	EventEvicted:      "evicted",
	EventPinFailed:    "pin failed",
	EventFlushed:      "flushed",
}

func (k EventKind) String() string {
	return eventNames[k]
}

// Event describes something that happened in the buffer pool.
// Frame is -1 for events that do not concern a single frame.
type Event struct {
	Kind   EventKind
	Policy Policy
	Frame  int
	Block  types.Block
	// Steps is the number of frames the policy inspected to pick a victim.
	Steps int
	Dirty bool
}

// Observer receives the events of a buffer manager.
// Observe is called with the manager lock held, and must not call back into the manager.
type Observer interface {
	Observe(e Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// NopObserver discards every event.
func NopObserver() Observer {
	return nopObserver{}
}

// LogObserver writes events to a structured logger, at debug level.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{
		logger: logger.With(slog.String("component", "buffer")),
	}
}

func (o *LogObserver) Observe(e Event) {
	ctx := context.Background()
	if !o.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	attrs := []slog.Attr{
		slog.String("policy", e.Policy.String()),
	}

	if e.Frame >= 0 {
		attrs = append(attrs, slog.Int("frame", e.Frame))
	}

	if e.Block.ID() != "" {
		attrs = append(attrs, slog.String("block", string(e.Block.ID())))
	}

	switch e.Kind {
	case EventVictimChosen:
		attrs = append(attrs, slog.Int("steps", e.Steps))
	case EventEvicted:
		attrs = append(attrs, slog.Bool("dirty", e.Dirty))
	}

	o.logger.LogAttrs(ctx, slog.LevelDebug, e.Kind.String(), attrs...)
}
