package media

// SlotState is the lifecycle state of one supervised stream slot.
type SlotState int32

const (
	// StateDisconnected means no open session. Entered at startup and
	// after any open failure or stream loss.
	StateDisconnected SlotState = iota
	// StateConnecting means an open attempt is in flight.
	StateConnecting
	// StateConnected means a session is open and units are flowing.
	StateConnected
	// StateClosing means the slot is shutting down; no further retries.
	StateClosing
)

// String returns a human-readable string representation of the state.
func (s SlotState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}
