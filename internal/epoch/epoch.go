// Package epoch implements the RCU-style reclamation scheme used by the FB
// registry (spec.md §4.1, §5): each reader enters and exits a critical
// section around its epoch counter; the reclaimer only frees an object once
// every reader that could have observed it has advanced past its epoch.
//
// This is an epoch-based scheme: a reader records the current global epoch
// when it enters, each Retire advances the global epoch, and a retired
// object is freed once its retirement epoch is older than the epoch of
// every reader still inside a critical section.
package epoch

import (
	"sync"
	"sync/atomic"
)

// inactive marks a reader slot with no in-progress critical section.
const inactive = ^uint64(0)

// Reclaimer tracks per-reader epochs and defers reclamation until no
// reader can still be observing a retired object.
type Reclaimer struct {
	global  atomic.Uint64
	readers []atomic.Uint64 // one slot per registered reader (worker)

	mu      sync.Mutex
	retired []retiredObj
}

type retiredObj struct {
	epoch uint64
	free  func()
}

// NewReclaimer creates a Reclaimer with nReaders reader slots (typically
// one per worker, plus one for the control plane).
func NewReclaimer(nReaders int) *Reclaimer {
	r := &Reclaimer{readers: make([]atomic.Uint64, nReaders)}
	for i := range r.readers {
		r.readers[i].Store(inactive)
	}
	r.global.Store(1)
	return r
}

// Enter marks reader id as having begun a critical section by recording
// the current global epoch in its slot. Objects retired during the critical
// section remain valid to dereference until Exit returns.
func (r *Reclaimer) Enter(reader int) {
	r.readers[reader].Store(r.global.Load())
}

// Exit marks reader id as having left its critical section.
func (r *Reclaimer) Exit(reader int) {
	r.readers[reader].Store(inactive)
}

// Advance bumps the global epoch. Retire calls it after each retirement so
// readers that start afterward observe a strictly newer epoch than any
// in-flight retirement.
func (r *Reclaimer) Advance() uint64 {
	return r.global.Add(1)
}

// Retire schedules free to run once every reader has advanced past the
// current global epoch, i.e. after a full grace period. free must not block
// and must be idempotent-safe to call from the reclaiming goroutine.
func (r *Reclaimer) Retire(free func()) {
	e := r.global.Load()
	r.mu.Lock()
	r.retired = append(r.retired, retiredObj{epoch: e, free: free})
	r.mu.Unlock()
	r.Advance()
	r.reclaim()
}

// reclaim frees everything retired strictly before the oldest active
// reader's epoch, or before the global epoch if no reader is active.
func (r *Reclaimer) reclaim() {
	min := r.global.Load()
	for i := range r.readers {
		e := r.readers[i].Load()
		if e != inactive && e < min {
			min = e
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.retired[:0]
	for _, o := range r.retired {
		if o.epoch < min {
			o.free()
		} else {
			kept = append(kept, o)
		}
	}
	r.retired = kept
}
