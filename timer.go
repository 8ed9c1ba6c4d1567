package pulse

import (
	"time"

	"github.com/pulseio/pulse/pulseerrors"
)

// Timer is a single schedulable expiry with optional recurrence.
//
// A repeating timer that is checked late fires at most once per Tick but
// re-arms on a boundary that is a whole number of intervals from the original
// schedule, so lateness never accumulates as drift.
type Timer struct {
	interval time.Duration
	repeat   bool
	callback func()
	clock    Clock

	// expiry is the absolute due time. The zero value is the sentinel for
	// "cancelled, or expired and not repeating".
	expiry time.Time
}

// NewTimer returns a timer expiring interval from now. The interval must be
// positive.
func NewTimer(clock Clock, interval time.Duration, callback func(), repeat bool) (*Timer, error) {
	if interval <= 0 {
		return nil, pulseerrors.ErrInvalidInterval
	}
	return &Timer{
		interval: interval,
		repeat:   repeat,
		callback: callback,
		clock:    clock,
		expiry:   clock().Add(interval),
	}, nil
}

// Reset re-arms the timer to fire interval from now, unconditionally: a
// cancelled or expired-and-dead timer comes back to life.
func (t *Timer) Reset() {
	t.expiry = t.clock().Add(t.interval)
}

// Cancel stops the timer. It will not fire again unless Reset is called.
func (t *Timer) Cancel() {
	t.expiry = time.Time{}
}

// Tick fires the callback if the timer is due and reports whether the timer
// is still alive afterwards. The callback runs at most once per call, no
// matter how many intervals were missed.
//
// The callback may Reset or Cancel its own timer; that always wins over the
// disposition Tick would have computed.
func (t *Timer) Tick() bool {
	if t.expiry.IsZero() {
		return false
	}
	if t.clock().Before(t.expiry) {
		return true
	}

	if !t.repeat {
		// Sentinel goes in first so that a Reset inside the callback
		// overrides it.
		t.expiry = time.Time{}
		t.callback()
		return !t.expiry.IsZero()
	}

	old := t.expiry
	t.callback()
	if t.expiry.Equal(old) {
		// The callback left the schedule alone: advance past every missed
		// boundary. The clock is resampled here so that time spent inside
		// the callback is part of the catch-up arithmetic.
		missed := int64(t.clock().Sub(old)/t.interval) + 1
		t.expiry = old.Add(time.Duration(missed) * t.interval)
	}
	return !t.expiry.IsZero()
}

// TimeUntilDue returns how long until the timer fires, zero if it is already
// due and Forever if it is dead.
func (t *Timer) TimeUntilDue() time.Duration {
	if t.expiry.IsZero() {
		return Forever
	}
	if d := t.expiry.Sub(t.clock()); d > 0 {
		return d
	}
	return 0
}
