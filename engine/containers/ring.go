package containers

import "golang.org/x/exp/constraints"

// Ring is a fixed set of slots addressed by a monotonically increasing
// counter. Counter k and counter k+Len() always resolve to the same slot.
type Ring[T any] struct {
	data []T
}

// NewRing creates a ring with size slots, each holding the zero value of T.
// It panics when size is zero.
func NewRing[T any](size int) *Ring[T] {
	if size <= 0 {
		panic("containers: ring size must be positive")
	}
	return &Ring[T]{
		data: make([]T, size),
	}
}

// SlotOf maps a counter onto one of size slots.
func SlotOf[C constraints.Unsigned](counter C, size int) int {
	return int(counter % C(size))
}

// Len returns the number of slots.
func (r *Ring[T]) Len() int {
	return len(r.data)
}

// At returns a pointer to the slot addressed by counter.
func (r *Ring[T]) At(counter uint64) *T {
	return &r.data[SlotOf(counter, len(r.data))]
}

// Slot returns a pointer to the slot with the given index.
func (r *Ring[T]) Slot(index int) *T {
	return &r.data[index]
}

// Each visits every slot starting at the one addressed by counter and
// wrapping around.
func (r *Ring[T]) Each(counter uint64, fn func(index int, value *T)) {
	start := SlotOf(counter, len(r.data))
	for i := 0; i < len(r.data); i++ {
		index := (start + i) % len(r.data)
		fn(index, &r.data[index])
	}
}
