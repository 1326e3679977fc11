// Package supervisor implements the device auto-reconnect core.
//
// A Slot keeps exactly one media.Session alive against a target
// media.DeviceIdentity, recovering automatically from transient
// disconnects. Open failures and mid-stream losses are both absorbed
// and retried with capped exponential backoff; no device-level failure
// is ever surfaced as fatal. Only a target change or shutdown ends the
// retry cycle.
//
// # Ownership model
//
// All slot state is owned by the goroutine running Slot.Run. External
// callers interact through SetTarget (a command handed to the run
// loop), Poll/Units (a buffered channel fed by the run loop), and
// State/Stats (atomics published by the run loop). There is no
// locking around the session itself: at most one session is live per
// slot and only the run loop touches it.
//
// # State machine
//
//	Disconnected → Connecting   on activation and on every retry tick
//	Connecting   → Connected    open succeeded
//	Connecting   → Disconnected open failed; next retry scheduled
//	Connected    → Disconnected session reported stream loss
//	any          → Closing      shutdown; session closed, retries stop
package supervisor
