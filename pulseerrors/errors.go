package pulseerrors

import "errors"

var (
	ErrInvalidInterval = errors.New("timer interval must be positive")
	ErrNoEventSources  = errors.New("loop has no timers and no watched descriptors")
	ErrStreamClosed    = errors.New("end of stream on a descriptor expected to stay open")
	ErrBadLength       = errors.New("packet length byte must be at least 1")
)
