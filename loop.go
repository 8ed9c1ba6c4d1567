package pulse

import (
	"time"

	"github.com/pulseio/pulse/internal"
	"github.com/pulseio/pulse/pulseerrors"
)

// Loop waits for descriptor readiness and timer deadlines and dispatches the
// registered callbacks, one iteration at a time, on the calling goroutine.
//
// Within an iteration every due timer fires strictly before any ready
// descriptor callback. Descriptor callbacks fire in whatever order the wait
// primitive reported them, which is not stable across iterations.
type Loop struct {
	timers  *TimerManager
	readers map[int]ReadCallback
	running bool
}

func New() *Loop {
	return NewWithClock(time.Now)
}

// NewWithClock is the test seam: timers of this loop consult the given clock
// instead of the real one.
func NewWithClock(clock Clock) *Loop {
	return &Loop{
		timers:  NewTimerManager(clock),
		readers: make(map[int]ReadCallback),
	}
}

// WatchReadable registers cb to be invoked whenever fd is ready for reading.
// A descriptor appears at most once: re-registering replaces the callback.
// Registration from inside a callback takes effect on the next wait cycle.
func (l *Loop) WatchReadable(fd int, cb ReadCallback) {
	l.readers[fd] = cb
}

// WatchReadableFiler registers anything exposing a raw descriptor, e.g. an
// *os.File. Normalization happens once, here. Returns the raw descriptor so
// the caller can UnwatchReadable it later.
func (l *Loop) WatchReadableFiler(f Filer, cb ReadCallback) int {
	fd := int(f.Fd())
	l.WatchReadable(fd, cb)
	return fd
}

// UnwatchReadable removes the callback registered for fd, if any.
func (l *Loop) UnwatchReadable(fd int) {
	delete(l.readers, fd)
}

// AddTimer schedules callback to run interval from now on this loop,
// repeatedly if repeat is set. The returned handle can be Reset or Cancelled,
// including from within callbacks; the next wait bound is recomputed from the
// live timer set every iteration, so the change is picked up immediately.
func (l *Loop) AddTimer(interval time.Duration, repeat bool, callback func()) (*Timer, error) {
	return l.timers.Add(interval, callback, repeat)
}

// Run waits for events and dispatches callbacks until Stop is called or a
// read callback returns an error. Running with no watched descriptors and no
// timers is a configuration error and fails fast with ErrNoEventSources
// rather than blocking forever.
func (l *Loop) Run() error {
	l.running = true
	for l.running {
		timeout := l.timers.TimeUntilNext()
		if len(l.readers) == 0 && timeout == Forever {
			return pulseerrors.ErrNoEventSources
		}

		var ready []int
		if len(l.readers) > 0 {
			fds := make([]int, 0, len(l.readers))
			for fd := range l.readers {
				fds = append(fds, fd)
			}
			var err error
			ready, err = internal.PollRead(fds, timeoutMs(timeout))
			if err != nil {
				return err
			}
		} else {
			time.Sleep(timeout)
		}

		// Even a readiness wakeup means time has passed; timers may be due.
		l.timers.DispatchDue()

		for _, fd := range ready {
			cb, ok := l.readers[fd]
			if !ok {
				// Unwatched by an earlier callback of this same iteration.
				continue
			}
			if err := cb(fd); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stop makes Run return after the current iteration finishes dispatching.
// Meant to be called from within a callback; the loop is the only thread
// there is.
func (l *Loop) Stop() {
	l.running = false
}

func timeoutMs(d time.Duration) int {
	if d == Forever {
		return -1
	}
	// Round up so a timer due in 100us does not busy-spin on a 0ms poll.
	return int((d + time.Millisecond - 1) / time.Millisecond)
}
