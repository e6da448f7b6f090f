// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bufpool

// Pool is a generic object pool interface with configurable blocking semantics.
//
// Implementations may operate in blocking or non-blocking mode. The engine's
// data path always uses non-blocking mode: a packet never waits for a
// buffer, it is dropped on exhaustion (spec.md's non-sleeping allocation
// requirement).
//
// All implementations must be safe for concurrent use.
type Pool[T any] interface {
	// Put returns the item to the pool.
	// Returns iox.ErrWouldBlock if non-blocking and full.
	Put(item T) error

	// Get acquires an item from the pool.
	// Returns iox.ErrWouldBlock if non-blocking and empty.
	Get() (item T, err error)
}

// IndirectPool manages items by index rather than by value, enabling
// zero-copy access to pooled packet buffers.
type IndirectPool[T BufferType] interface {
	Pool[int]

	// Value returns the buffer associated with the given indirect index.
	Value(indirect int) T

	// SetValue updates the buffer at the specified indirect index.
	SetValue(indirect int, item T)
}

type (
	// MicroBufferPool manages 512-byte buffers via indirect indexing.
	MicroBufferPool = IndirectPool[MicroBuffer]

	// SmallBufferPool manages 2 KiB buffers via indirect indexing.
	SmallBufferPool = IndirectPool[SmallBuffer]

	// MediumBufferPool manages 8 KiB buffers via indirect indexing.
	MediumBufferPool = IndirectPool[MediumBuffer]

	// BigBufferPool manages 32 KiB buffers via indirect indexing.
	BigBufferPool = IndirectPool[BigBuffer]
)
