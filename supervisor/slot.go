package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coolreader18/capturecard-display/media"
)

const defaultUnitBuffer = 8

// SlotConfig configures one supervised stream slot.
type SlotConfig struct {
	// Kind is the logical stream kind this slot supervises.
	Kind media.StreamKind
	// Target is the initial device identity. A zero identity leaves the
	// slot idle until SetTarget is called.
	Target media.DeviceIdentity
	// Opener acquires sessions for the target device (required).
	Opener media.Opener
	// Retry shapes the reconnect poll interval. Zero fields fall back
	// to DefaultRetryPolicy.
	Retry RetryPolicy
	// Buffer is the unit channel capacity (default 8). When the
	// downstream sink lags, the oldest buffered units are retained and
	// new units are dropped with a counter bump.
	Buffer int
}

type setTargetCmd struct {
	target media.DeviceIdentity
	done   chan struct{}
}

// Slot supervises one logical stream: it owns at most one live
// media.Session at a time and replaces it transparently when the
// device disappears and returns.
//
// Create with NewSlot, then call Run exactly once (usually in its own
// goroutine). All other methods are safe to call from any goroutine.
type Slot struct {
	kind   media.StreamKind
	opener media.Opener
	retry  RetryPolicy

	cmds  chan setTargetCmd
	units chan media.Unit

	state      atomic.Int32
	stateSince atomic.Int64

	targetMu sync.Mutex
	target   media.DeviceIdentity

	unitsForwarded atomic.Uint64
	unitsDropped   atomic.Uint64
	opensFailed    atomic.Uint64
	reconnects     atomic.Uint32

	started atomic.Bool
	stopped chan struct{}
}

// NewSlot creates a slot with fail-fast validation.
func NewSlot(cfg SlotConfig) (*Slot, error) {
	if cfg.Opener == nil {
		return nil, fmt.Errorf("supervisor: opener is required")
	}
	if !cfg.Target.IsZero() && cfg.Target.Kind != cfg.Kind {
		return nil, fmt.Errorf(
			"supervisor: target kind %s does not match slot kind %s",
			cfg.Target.Kind, cfg.Kind,
		)
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultUnitBuffer
	}

	s := &Slot{
		kind:    cfg.Kind,
		opener:  cfg.Opener,
		retry:   cfg.Retry.normalized(),
		cmds:    make(chan setTargetCmd),
		units:   make(chan media.Unit, buffer),
		target:  cfg.Target,
		stopped: make(chan struct{}),
	}
	s.state.Store(int32(media.StateDisconnected))
	s.stateSince.Store(time.Now().UnixNano())
	return s, nil
}

// Run drives the slot state machine until ctx is cancelled. It owns
// the session exclusively; no other goroutine ever touches it.
//
// On return the slot is in Closing state, any open session has been
// closed, and the unit channel is closed. Run must be called at most
// once.
func (s *Slot) Run(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		panic("supervisor: Slot.Run called twice")
	}
	defer close(s.stopped)

	var (
		sess       media.Session
		sessCancel context.CancelFunc
		pumpErr    chan error
		attempt    int
		retryTimer *time.Timer
		retryC     <-chan time.Time
	)

	stopRetry := func() {
		if retryTimer != nil {
			retryTimer.Stop()
			retryTimer = nil
		}
		retryC = nil
	}
	scheduleRetry := func(d time.Duration) {
		stopRetry()
		retryTimer = time.NewTimer(d)
		retryC = retryTimer.C
	}

	// closeSession fully tears down the live session: cancel the pump,
	// wait for it to exit, then release the device handle. Nothing may
	// open a new session before this returns (one live session per
	// slot, ever).
	closeSession := func() {
		if sess == nil {
			return
		}
		sessCancel()
		for range pumpErr {
		}
		if err := sess.Close(); err != nil {
			slog.Warn("supervisor: session close failed",
				"kind", s.kind.String(),
				"error", err,
			)
		}
		sess = nil
		sessCancel = nil
		pumpErr = nil
	}

	tryOpen := func() {
		target := s.Target()
		if target.IsZero() {
			s.setState(media.StateDisconnected)
			return
		}

		s.setState(media.StateConnecting)
		newSess, err := s.opener.Open(ctx, target)
		if err != nil {
			attempt++
			s.opensFailed.Add(1)
			s.setState(media.StateDisconnected)

			delay := s.retry.Delay(attempt)
			slog.Warn("supervisor: open failed, will retry",
				"kind", s.kind.String(),
				"device", target.String(),
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
			scheduleRetry(delay)
			return
		}

		attempt = 0
		sessCtx, cancel := context.WithCancel(ctx)
		sess = newSess
		sessCancel = cancel
		pumpErr = make(chan error, 1)
		go s.pump(sessCtx, newSess, pumpErr)

		s.setState(media.StateConnected)
		slog.Info("supervisor: stream connected",
			"kind", s.kind.String(),
			"device", target.String(),
		)
	}

	if !s.Target().IsZero() {
		tryOpen()
	}

	for {
		select {
		case <-ctx.Done():
			s.setState(media.StateClosing)
			stopRetry()
			closeSession()
			close(s.units)
			slog.Info("supervisor: slot stopped",
				"kind", s.kind.String(),
				"units_forwarded", s.unitsForwarded.Load(),
				"units_dropped", s.unitsDropped.Load(),
				"reconnects", s.reconnects.Load(),
			)
			return

		case cmd := <-s.cmds:
			if cmd.target.Equal(s.Target()) {
				// Same identity: no open/close churn.
				close(cmd.done)
				continue
			}
			slog.Info("supervisor: target changed",
				"kind", s.kind.String(),
				"from", s.Target().String(),
				"to", cmd.target.String(),
			)
			stopRetry()
			closeSession()
			s.setState(media.StateDisconnected)
			s.storeTarget(cmd.target)
			attempt = 0
			close(cmd.done)
			tryOpen()

		case err := <-pumpErr:
			if ctx.Err() != nil {
				// Shutdown already in progress; the ctx.Done case
				// performs the cleanup.
				continue
			}
			s.reconnects.Add(1)
			closeSession()
			s.setState(media.StateDisconnected)

			if errors.Is(err, media.ErrStreamLost) {
				slog.Warn("supervisor: stream lost, reconnecting",
					"kind", s.kind.String(),
					"device", s.Target().String(),
				)
			} else {
				slog.Error("supervisor: stream failed, reconnecting",
					"kind", s.kind.String(),
					"device", s.Target().String(),
					"error", err,
				)
			}
			scheduleRetry(s.retry.Delay(1))

		case <-retryC:
			stopRetry()
			tryOpen()
		}
	}
}

// pump pulls units from the session and forwards them downstream.
// Forwarding never blocks: when the buffer is full the unit is dropped
// and counted, keeping latency bounded when the sink lags.
//
// Exactly one error is delivered on errc before it is closed; a
// context-cancelled exit closes errc without sending.
func (s *Slot) pump(ctx context.Context, sess media.Session, errc chan<- error) {
	defer close(errc)
	for {
		unit, err := sess.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				errc <- err
			}
			return
		}

		select {
		case s.units <- unit:
			s.unitsForwarded.Add(1)
		default:
			s.unitsDropped.Add(1)
			slog.Debug("supervisor: dropping unit, buffer full",
				"kind", s.kind.String(),
				"seq", unit.Seq,
			)
		}
	}
}

// SetTarget atomically swaps the slot's target device. If a session
// for a different identity is active it is closed and the slot starts
// connecting to the new identity. Calling with the current identity is
// a no-op. Blocks until the run loop has applied the change (or the
// slot has stopped).
func (s *Slot) SetTarget(target media.DeviceIdentity) {
	cmd := setTargetCmd{target: target, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
		select {
		case <-cmd.done:
		case <-s.stopped:
		}
	case <-s.stopped:
	}
}

// Target returns the current target device identity.
func (s *Slot) Target() media.DeviceIdentity {
	s.targetMu.Lock()
	defer s.targetMu.Unlock()
	return s.target
}

func (s *Slot) storeTarget(target media.DeviceIdentity) {
	s.targetMu.Lock()
	s.target = target
	s.targetMu.Unlock()
}

// State returns the slot's current lifecycle state. Intended for UI
// observers (e.g. a "reconnecting" indicator).
func (s *Slot) State() media.SlotState {
	return media.SlotState(s.state.Load())
}

// Poll performs a non-blocking fetch of the next unit. The second
// return is false while no data is available, including the whole
// time the slot is Disconnected or Connecting, so callers can render
// a placeholder instead of treating the gap as an error.
func (s *Slot) Poll() (media.Unit, bool) {
	select {
	case unit, ok := <-s.units:
		if !ok {
			return media.Unit{}, false
		}
		return unit, true
	default:
		return media.Unit{}, false
	}
}

// Units returns the slot's unit stream for push-style sinks. The
// channel is closed when the slot shuts down.
func (s *Slot) Units() <-chan media.Unit {
	return s.units
}

func (s *Slot) setState(st media.SlotState) {
	if media.SlotState(s.state.Swap(int32(st))) != st {
		s.stateSince.Store(time.Now().UnixNano())
	}
}
