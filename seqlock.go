package netfab

import (
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// Seqlock is a write-even/odd sequence counter guarding a small piece of
// per-FB state (spec.md §3, §9): writers bump the counter to odd, mutate,
// bump it back to even; readers retry until they observe a stable even
// sequence across their read. Readers never block writers, and writers
// never block on readers.
//
// The zero value is a valid, unlocked Seqlock.
type Seqlock struct {
	seq atomic.Uint32
}

// ReadBegin returns the current sequence number for a read attempt.
func (l *Seqlock) ReadBegin() uint32 {
	for {
		s := l.seq.Load()
		if s&1 == 0 {
			return s
		}
		// A writer is mid-update; spin until it finishes.
		var sw spin.Wait
		sw.Once()
	}
}

// ReadRetry reports whether the read started at ReadBegin's sequence number
// must be retried because a writer ran concurrently.
func (l *Seqlock) ReadRetry(start uint32) bool {
	return l.seq.Load() != start
}

// WriteLock marks the start of a write, making the sequence odd so
// concurrent readers retry.
func (l *Seqlock) WriteLock() {
	l.seq.Add(1)
}

// WriteUnlock marks the end of a write, making the sequence even again so
// readers can succeed.
func (l *Seqlock) WriteUnlock() {
	l.seq.Add(1)
}
