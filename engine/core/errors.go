package core

import (
	"errors"
)

var (
	// ErrInvalidTransition is returned when a layout transition addresses a mip
	// range that is out of bounds or not in a single uniform layout.
	ErrInvalidTransition = errors.New("invalid image layout transition")
	// ErrImageDecode is returned when a pixel source cannot be inspected or decoded.
	ErrImageDecode = errors.New("image decode failed")
	// ErrDeviceAllocation is returned when the device refuses an image, buffer or pool allocation.
	ErrDeviceAllocation = errors.New("device allocation failed")
	// ErrFrameInFlight signals that a frame slot was recycled before the device retired it.
	ErrFrameInFlight = errors.New("frame slot recycled while still in flight")
	ErrSubmission    = errors.New("command submission failed")
	ErrUnknown       = errors.New("unknown")
)
