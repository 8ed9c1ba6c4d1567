package pulse

import (
	"bytes"
	"log/slog"

	"github.com/pulseio/pulse/pulseerrors"
)

// PacketDelimiter starts every packet on the wire. The split-delimiter
// push-back in seekDelimiter relies on it being exactly two bytes.
var PacketDelimiter = [2]byte{0xF5, 0x5F}

// PacketCallback receives the payload of one decoded packet. The slice is
// owned by the callback and holds no reference to the read buffer.
type PacketCallback func(payload []byte) error

// PacketReader decodes a delimiter-framed binary protocol from an unreliable
// byte stream. A packet is the 2-byte delimiter, one length byte L (which
// counts itself, so L >= 1), then L-1 payload bytes. There is no checksum and
// no escaping: delimiter bytes inside a payload are plain data.
//
// The decoder is strictly resynchronizing: garbage in front of a delimiter
// never desynchronizes later packets, it is dropped, counted and logged.
type PacketReader struct {
	callback PacketCallback
	log      *slog.Logger

	// inPacket discriminates the two states: scanning for a delimiter, or
	// inside a packet waiting for its length to be satisfied.
	inPacket bool
	dropped  int
}

// NewPacketReader registers a packet decoder for fd on loop, reading at most
// maxBlockSize bytes per readiness event and invoking cb per decoded packet.
func NewPacketReader(loop *Loop, fd int, maxBlockSize int, cb PacketCallback) *PacketReader {
	r := &PacketReader{
		callback: cb,
		log:      slog.Default(),
	}
	PushBackReader(loop, fd, maxBlockSize, r.onBlock)
	return r
}

// DroppedBytes reports how many non-packet bytes have been discarded while
// seeking a delimiter.
func (r *PacketReader) DroppedBytes() int {
	return r.dropped
}

func (r *PacketReader) onBlock(data []byte, pushBack PushBack) error {
	for {
		if !r.inPacket {
			rest, found := r.seekDelimiter(data, pushBack)
			if !found {
				return nil
			}
			r.inPacket = true
			data = rest
			if len(data) == 0 {
				return nil
			}
		}

		rest, done, err := r.readPacket(data, pushBack)
		if err != nil || !done {
			return err
		}
		r.inPacket = false
		if len(rest) == 0 {
			return nil
		}
		// One read can carry several packets; keep decoding.
		data = rest
	}
}

// seekDelimiter discards noise up to and including the next delimiter and
// returns what follows. When no delimiter is present everything is dropped
// except a trailing byte equal to the delimiter's first half, which is pushed
// back: it may be a delimiter split across two reads.
func (r *PacketReader) seekDelimiter(data []byte, pushBack PushBack) ([]byte, bool) {
	if i := bytes.Index(data, PacketDelimiter[:]); i >= 0 {
		r.drop(i)
		return data[i+len(PacketDelimiter):], true
	}

	dropped := len(data)
	if data[len(data)-1] == PacketDelimiter[0] {
		pushBack(data[len(data)-1:])
		dropped--
	}
	r.drop(dropped)
	return nil, false
}

// readPacket consumes one length-prefixed packet from data, which starts at
// the length byte. When the packet is still incomplete everything from the
// length byte onward is pushed back and done is false.
func (r *PacketReader) readPacket(data []byte, pushBack PushBack) (rest []byte, done bool, err error) {
	length := int(data[0])
	if length < 1 {
		return nil, false, pulseerrors.ErrBadLength
	}
	if len(data) < length {
		pushBack(data)
		return nil, false, nil
	}

	payload := make([]byte, length-1)
	copy(payload, data[1:length])
	if err := r.callback(payload); err != nil {
		return nil, false, err
	}
	return data[length:], true, nil
}

func (r *PacketReader) drop(n int) {
	if n > 0 {
		r.dropped += n
		r.log.Info("dropped non-packet bytes", "count", n, "total", r.dropped)
	}
}
