package pulse

import (
	"bytes"
	"os"

	"github.com/eapache/queue"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/sys/unix"

	"github.com/pulseio/pulse/pulseerrors"
)

// BlockCallback receives one freshly read block. The slice is reused across
// events and is only valid for the duration of the call; callers that keep
// data around must copy it.
type BlockCallback func(data []byte) error

// BlockReader watches fd on loop and performs one read of at most
// maxBlockSize bytes per readiness event, handing the block to cb.
//
// A zero-byte read means the peer closed a stream this design assumes never
// closes, so it aborts the loop with ErrStreamClosed. A descriptor that polls
// readable but then reads EAGAIN is a spurious wakeup and is ignored.
func BlockReader(loop *Loop, fd int, maxBlockSize int, cb BlockCallback) {
	buf := make([]byte, maxBlockSize)
	loop.WatchReadable(fd, func(fd int) error {
		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return os.NewSyscallError("read", err)
		}
		if n <= 0 {
			return pulseerrors.ErrStreamClosed
		}
		return cb(buf[:n])
	})
}

// PushBack re-queues a fragment so that it is delivered again, ahead of any
// newly read bytes, on the next readiness event. The fragment is copied.
type PushBack func(fragment []byte)

// PushBackCallback receives the next block, with any previously pushed-back
// fragments prepended in push order, plus the push-back capability for this
// descriptor.
type PushBackCallback func(data []byte, pushBack PushBack) error

// PushBackReader wraps a BlockReader with a re-queueing capability. Fragments
// pushed back during a callback are held until the next invocation; they are
// never replayed within the same call.
func PushBackReader(loop *Loop, fd int, maxBlockSize int, cb PushBackCallback) {
	pending := queue.New()
	pushBack := func(fragment []byte) {
		pending.Add(append([]byte(nil), fragment...))
	}

	BlockReader(loop, fd, maxBlockSize, func(block []byte) error {
		data := block
		if pending.Length() > 0 {
			joined := make([]byte, 0, len(block)+pending.Length())
			for pending.Length() > 0 {
				joined = append(joined, pending.Remove().([]byte)...)
			}
			data = append(joined, block...)
		}
		return cb(data, pushBack)
	})
}

// LineCallback receives one newline-terminated line, delimiter included. The
// slice is owned by the callback.
type LineCallback func(line []byte) error

// LineReader delivers one callback per complete line, buffering a partial
// line across readiness events until its newline arrives. Several complete
// lines in one block are delivered separately, in order.
func LineReader(loop *Loop, fd int, maxBlockSize int, cb LineCallback) {
	pending := bytebufferpool.Get()

	BlockReader(loop, fd, maxBlockSize, func(block []byte) error {
		for {
			i := bytes.IndexByte(block, '\n')
			if i < 0 {
				break
			}
			i++ // the delimiter belongs to the line

			var line []byte
			if pending.Len() > 0 {
				pending.Write(block[:i])
				line = append([]byte(nil), pending.B...)
				pending.Reset()
			} else {
				line = append([]byte(nil), block[:i]...)
			}
			if err := cb(line); err != nil {
				return err
			}
			block = block[i:]
		}
		if len(block) > 0 {
			pending.Write(block)
		}
		return nil
	})
}
