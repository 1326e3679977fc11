package supervisor

import (
	"time"

	"github.com/coolreader18/capturecard-display/media"
)

// SlotStats is a snapshot of a slot's operational state.
type SlotStats struct {
	// Kind is the logical stream kind of the slot.
	Kind media.StreamKind
	// Target is the current target device identity.
	Target media.DeviceIdentity
	// State is the lifecycle state at snapshot time.
	State media.SlotState
	// StateSince is how long the slot has been in State.
	StateSince time.Duration
	// UnitsForwarded is the lifetime count of units handed downstream.
	UnitsForwarded uint64
	// UnitsDropped is the lifetime count of units dropped because the
	// downstream buffer was full.
	UnitsDropped uint64
	// OpensFailed is the lifetime count of failed open attempts.
	OpensFailed uint64
	// Reconnects is the number of times a live session was lost and
	// the slot re-entered the retry cycle.
	Reconnects uint32
}

// Stats returns current slot statistics. Thread-safe; counters are
// read atomically.
func (s *Slot) Stats() SlotStats {
	since := time.Unix(0, s.stateSince.Load())
	return SlotStats{
		Kind:           s.kind,
		Target:         s.Target(),
		State:          s.State(),
		StateSince:     time.Since(since),
		UnitsForwarded: s.unitsForwarded.Load(),
		UnitsDropped:   s.unitsDropped.Load(),
		OpensFailed:    s.opensFailed.Load(),
		Reconnects:     s.reconnects.Load(),
	}
}
