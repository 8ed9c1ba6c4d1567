// Package pulse is a single-threaded, readiness-based event loop with a timer
// subsystem and layered byte-stream framing: raw block reads, push-back
// re-queueing and line framing, plus a resynchronizing binary packet decoder.
//
// All callbacks run to completion on the loop's goroutine before the next
// wait cycle. The only suspension point is the readiness wait inside Run.
package pulse

import (
	"math"
	"time"
)

// ReadCallback is invoked with the descriptor that was reported ready for
// reading. A non-nil error aborts Loop.Run with that error.
type ReadCallback func(fd int) error

// Clock supplies the current time. Injectable so that timer arithmetic can be
// tested without sleeping.
type Clock func() time.Time

// Filer is anything owning a raw file descriptor, e.g. *os.File.
type Filer interface {
	Fd() uintptr
}

// Forever is the wait bound of a loop with nothing scheduled: no timer is
// ever due. It composes through TimerManager.TimeUntilNext without any
// special case for emptiness.
const Forever = time.Duration(math.MaxInt64)
