package frame

import (
	"fmt"

	"github.com/spaghettifunk/lovevk/engine/containers"
	"github.com/spaghettifunk/lovevk/engine/core"
)

// CommandPool is a transient, resettable pool of command buffers of type C.
// Buffers are never freed one by one; Reset reclaims all of them.
type CommandPool[C any] interface {
	AllocatePrimary() (C, error)
	Reset() error
	Destroy()
}

type PoolFactory[C any] func(slot uint32) (CommandPool[C], error)

// CommandRing owns one command pool per frame slot.
type CommandRing[C any] struct {
	clock *Clock
	pools *containers.Ring[CommandPool[C]]
}

func NewCommandRing[C any](clock *Clock, factory PoolFactory[C]) (*CommandRing[C], error) {
	r := &CommandRing[C]{
		clock: clock,
		pools: containers.NewRing[CommandPool[C]](int(clock.FramesInFlight())),
	}
	for slot := uint32(0); slot < clock.FramesInFlight(); slot++ {
		pool, err := factory(slot)
		if err != nil {
			r.Destroy()
			return nil, fmt.Errorf("failed to create command pool for slot %d: %w", slot, err)
		}
		*r.pools.Slot(int(slot)) = pool
	}
	core.LogDebug("Created %d per-frame command pools.", clock.FramesInFlight())
	return r, nil
}

// AllocateForCurrentFrame allocates a primary command buffer from the pool of
// the current slot.
func (r *CommandRing[C]) AllocateForCurrentFrame() (C, error) {
	return (*r.pools.At(r.clock.Counter())).AllocatePrimary()
}

// ResetSlot reclaims every buffer allocated from the slot's pool. The caller
// must have waited for the slot's previous submission.
func (r *CommandRing[C]) ResetSlot(slot uint32) error {
	return r.Pool(slot).Reset()
}

func (r *CommandRing[C]) Pool(slot uint32) CommandPool[C] {
	return *r.pools.Slot(int(slot))
}

func (r *CommandRing[C]) Destroy() {
	for i := 0; i < r.pools.Len(); i++ {
		pool := r.pools.Slot(i)
		if *pool != nil {
			(*pool).Destroy()
			*pool = nil
		}
	}
}
