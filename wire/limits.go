package wire

import "errors"

const (
	// DefaultMaxFrame is the frame size accepted when no limit is configured.
	DefaultMaxFrame = 16 << 20 // 16 MiB

	// MaxFrameHardLimit caps configured frame limits. SetLimits clamps to it.
	MaxFrameHardLimit = 512 << 20 // 512 MiB
)

// ErrFrameTooLarge is returned when a frame header announces a payload
// larger than the configured limit.
var ErrFrameTooLarge = errors.New("frame exceeds size limit")

// Limits bounds the payload sizes the codec will accept or emit.
type Limits struct {
	// MaxFrame is the largest payload, in bytes, allowed in a single frame.
	MaxFrame uint32
}

// DefaultLimits returns the limits used by readers and writers that were
// not explicitly configured.
func DefaultLimits() Limits {
	return Limits{MaxFrame: DefaultMaxFrame}
}

// clamped normalizes l: a zero MaxFrame falls back to the default and
// anything above the hard limit is reduced to it.
func (l Limits) clamped() Limits {
	if l.MaxFrame == 0 {
		l.MaxFrame = DefaultMaxFrame
	}
	if l.MaxFrame > MaxFrameHardLimit {
		l.MaxFrame = MaxFrameHardLimit
	}
	return l
}
