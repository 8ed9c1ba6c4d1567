package pulse

import "time"

// TimerManager tracks an unordered set of timers. Callers keep the returned
// handles to Reset or Cancel individual timers later.
//
// Not safe for concurrent use; the whole point of the loop is to avoid
// threads.
type TimerManager struct {
	clock  Clock
	timers []*Timer
}

func NewTimerManager(clock Clock) *TimerManager {
	return &TimerManager{clock: clock}
}

// Add constructs and tracks a timer firing interval from now, repeatedly if
// repeat is set.
func (m *TimerManager) Add(interval time.Duration, callback func(), repeat bool) (*Timer, error) {
	t, err := NewTimer(m.clock, interval, callback, repeat)
	if err != nil {
		return nil, err
	}
	m.timers = append(m.timers, t)
	return t, nil
}

// DispatchDue ticks every tracked timer once and drops the ones that report
// dead. Iteration runs over a snapshot: callbacks are free to Add timers
// during the pass, and those additions are retained untouched.
func (m *TimerManager) DispatchDue() {
	snapshot := m.timers
	alive := make([]*Timer, 0, len(snapshot))
	for _, t := range snapshot {
		if t.Tick() {
			alive = append(alive, t)
		}
	}
	// Anything beyond the snapshot was added by a callback just now.
	m.timers = append(alive, m.timers[len(snapshot):]...)
}

// TimeUntilNext returns how long the caller may wait before DispatchDue has
// something to do: the minimum TimeUntilDue over all tracked timers, or
// Forever when there are none.
func (m *TimerManager) TimeUntilNext() time.Duration {
	next := Forever
	for _, t := range m.timers {
		if d := t.TimeUntilDue(); d < next {
			next = d
		}
	}
	return next
}
