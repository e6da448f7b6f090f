// Package queue provides the lock-free MPMC ring buffer that backs each
// worker's ingress and egress queues.
//
// Ring adapts the turn/CAS discipline of bufpool.BoundedPool into a
// produce/consume queue rather than an object pool: it starts empty, Push
// enqueues a live item, Pop dequeues the oldest one, and each slot carries
// its own sequence counter so a producer and a consumer can never touch the
// same slot at once. Any number of producers may call Push concurrently
// (the engine's scheduler call can run on any goroutine); Pop is intended
// to be called by a single consumer (the owning worker), though the
// algorithm tolerates concurrent consumers too.
package queue

import (
	"math"
	"sync/atomic"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// Ring is a bounded, lock-free MPMC FIFO queue of type T.
//
// Capacity is rounded up to the next power of two. Ring is safe for
// concurrent use by any number of producers and consumers.
type Ring[T any] struct {
	cells      []cell[T]
	mask       uint64
	capacity   uint32
	head, tail atomic.Uint64
}

type cell[T any] struct {
	seq  atomic.Uint64
	item T
}

// New creates a Ring with the given capacity, rounded up to a power of two.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 || capacity > math.MaxUint32 {
		panic("capacity must be between 1 and MaxUint32")
	}
	capacity--
	capacity |= capacity >> 1
	capacity |= capacity >> 2
	capacity |= capacity >> 4
	capacity |= capacity >> 8
	capacity |= capacity >> 16
	capacity++

	r := &Ring[T]{
		cells:    make([]cell[T], capacity),
		mask:     uint64(capacity - 1),
		capacity: uint32(capacity),
	}
	for i := range r.cells {
		r.cells[i].seq.Store(uint64(i))
	}
	return r
}

// Cap returns the queue's capacity.
func (r *Ring[T]) Cap() int { return int(r.capacity) }

// Len returns a point-in-time estimate of the number of queued items.
// Concurrent Push/Pop calls may make this stale the instant it is read.
func (r *Ring[T]) Len() int {
	t, h := r.tail.Load(), r.head.Load()
	if t < h {
		return 0
	}
	return int(t - h)
}

// Empty reports whether the queue currently has no items.
func (r *Ring[T]) Empty() bool {
	return r.head.Load() == r.tail.Load()
}

// Push enqueues an item. Returns iox.ErrWouldBlock if the queue is full;
// the engine's data path treats this as a drop-with-counter-increment
// rather than ever blocking (spec.md's non-sleeping allocation rule).
func (r *Ring[T]) Push(item T) error {
	sw := spin.Wait{}
	pos := r.tail.Load()
	for {
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		switch diff := int64(seq) - int64(pos); {
		case diff == 0:
			if r.tail.CompareAndSwap(pos, pos+1) {
				c.item = item
				c.seq.Store(pos + 1)
				return nil
			}
			sw.Once()
		case diff < 0:
			return iox.ErrWouldBlock
		default:
			pos = r.tail.Load()
		}
	}
}

// Pop dequeues the oldest item. Returns iox.ErrWouldBlock if the queue is
// empty.
func (r *Ring[T]) Pop() (item T, err error) {
	sw := spin.Wait{}
	pos := r.head.Load()
	for {
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		switch diff := int64(seq) - int64(pos+1); {
		case diff == 0:
			if r.head.CompareAndSwap(pos, pos+1) {
				v := c.item
				var zero T
				c.item = zero
				c.seq.Store(pos + r.mask + 1)
				return v, nil
			}
			sw.Once()
		case diff < 0:
			var zero T
			return zero, iox.ErrWouldBlock
		default:
			pos = r.head.Load()
		}
	}
}
