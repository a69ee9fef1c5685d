package frame

import (
	"fmt"

	"github.com/spaghettifunk/lovevk/engine/containers"
	"github.com/spaghettifunk/lovevk/engine/core"
)

// Action releases something the device may still be reading. It owns every
// handle it captures until it runs.
type Action func()

// RetirementCheck reports whether the device finished all work submitted for
// the given slot.
type RetirementCheck func(slot uint32) bool

type Option func(*CleanupRing)

// WithRetirementCheck makes AdvanceFrame verify, before running a slot's
// actions, that the device has retired that slot.
func WithRetirementCheck(check RetirementCheck) Option {
	return func(r *CleanupRing) {
		r.retired = check
	}
}

// CleanupRing defers releases by exactly N frames. An action enqueued at
// counter k runs inside the AdvanceFrame call that moves the counter to k+N.
// It is not safe for concurrent use.
type CleanupRing struct {
	clock   *Clock
	queues  *containers.Ring[[]Action]
	retired RetirementCheck
}

func NewCleanupRing(clock *Clock, opts ...Option) *CleanupRing {
	r := &CleanupRing{
		clock:  clock,
		queues: containers.NewRing[[]Action](int(clock.FramesInFlight())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CleanupRing) Clock() *Clock {
	return r.clock
}

// Enqueue appends action to the queue of the current slot.
func (r *CleanupRing) Enqueue(action Action) {
	if action == nil {
		return
	}
	queue := r.queues.At(r.clock.Counter())
	*queue = append(*queue, action)
}

// AdvanceFrame moves the clock forward and runs, in enqueue order, every
// action of the slot being recycled. The slot is then reseeded with a no-op
// so that a used slot is never empty between cycles.
func (r *CleanupRing) AdvanceFrame() {
	// The clock only moves once the slot is known to be retired.
	if slot := r.clock.NextSlot(); r.retired != nil && !r.retired(slot) {
		err := fmt.Errorf("slot %d at frame %d (frames in flight: %d): %w", slot, r.clock.Counter()+1, r.clock.FramesInFlight(), core.ErrFrameInFlight)
		core.LogError(err.Error())
		panic(err)
	}

	counter := r.clock.advance()
	queue := r.queues.At(counter)
	actions := *queue
	*queue = nil
	for _, action := range actions {
		action()
	}

	r.Enqueue(noop)
}

// Flush runs every pending action of every slot, oldest slot first. Only call
// it once the device is idle.
func (r *CleanupRing) Flush() {
	r.queues.Each(r.clock.Counter()+1, func(_ int, queue *[]Action) {
		actions := *queue
		*queue = nil
		for _, action := range actions {
			action()
		}
	})
}

// Pending returns the number of actions queued on slot, sentinel included.
func (r *CleanupRing) Pending(slot uint32) int {
	return len(*r.queues.Slot(int(slot)))
}

func noop() {}
