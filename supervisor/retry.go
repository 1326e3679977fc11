package supervisor

import "time"

// RetryPolicy controls how quickly a slot re-attempts to open its
// device while Disconnected.
//
// Unlike a bounded retry loop, a slot retries indefinitely: a capture
// card that stays unplugged for an hour should still come back the
// moment it is reinserted. The policy only shapes the poll interval.
type RetryPolicy struct {
	// InitialDelay is the delay before the first retry after a failure.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier is the backoff growth factor per consecutive failure.
	Multiplier float64
}

// DefaultRetryPolicy returns the default reconnect tuning: 500ms
// initial delay, doubling per failure, capped at 5 seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// normalized returns the policy with zero fields replaced by defaults,
// so a partially-filled config file still yields a sane schedule.
func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = def.Multiplier
	}
	return p
}

// Delay returns the wait before retry number attempt (1-based).
//
// Schedule with defaults: 500ms, 1s, 2s, 4s, 5s, 5s, ...
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.normalized()
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
		if delay >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}
