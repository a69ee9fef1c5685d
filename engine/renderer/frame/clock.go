package frame

// DefaultFramesInFlight is the number of frames the device may still be
// executing while the CPU records a new one.
const DefaultFramesInFlight uint32 = 3

// Clock counts rendered frames and maps the counter onto one of N slots.
type Clock struct {
	counter        uint64
	framesInFlight uint32
}

// NewClock creates a clock with framesInFlight slots. N must be at least the
// number of frames the driver can keep queued; this is not checked at runtime
// unless a RetirementCheck is installed on the CleanupRing.
func NewClock(framesInFlight uint32) *Clock {
	if framesInFlight == 0 {
		panic("frame: frames in flight must be at least 1")
	}
	return &Clock{
		framesInFlight: framesInFlight,
	}
}

func (c *Clock) Counter() uint64 {
	return c.counter
}

func (c *Clock) FramesInFlight() uint32 {
	return c.framesInFlight
}

// Slot returns the slot of the current frame.
func (c *Clock) Slot() uint32 {
	return c.SlotOf(c.counter)
}

// NextSlot returns the slot the next advance will recycle.
func (c *Clock) NextSlot() uint32 {
	return c.SlotOf(c.counter + 1)
}

func (c *Clock) SlotOf(counter uint64) uint32 {
	return uint32(counter % uint64(c.framesInFlight))
}

func (c *Clock) advance() uint64 {
	c.counter++
	return c.counter
}
