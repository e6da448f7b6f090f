package engine

import "code.hybscloud.com/netfab"

// Stats holds one worker's observability counters (spec.md §6: "packets,
// bytes, errors, drops, timer_fires, timer_cpu_miss"). Writes happen only
// on the owning worker's goroutine; reads from any other goroutine go
// through a seqlock so they never observe a torn 64-bit pair on a 32-bit
// platform (spec.md §5: "u64 seqlock-like update/fetch dance").
type Stats struct {
	lock netfab.Seqlock

	packets      uint64
	bytes        uint64
	errors       uint64
	drops        uint64
	timerFires   uint64
	timerCPUMiss uint64
}

// Snapshot is a consistent point-in-time copy of Stats.
type Snapshot struct {
	Packets      uint64
	Bytes        uint64
	Errors       uint64
	Drops        uint64
	TimerFires   uint64
	TimerCPUMiss uint64
}

func (s *Stats) recordSuccess(n int) {
	s.lock.WriteLock()
	s.packets++
	s.bytes += uint64(n)
	s.lock.WriteUnlock()
}

func (s *Stats) recordDrop(n int) {
	s.lock.WriteLock()
	s.packets++
	s.bytes += uint64(n)
	s.drops++
	s.lock.WriteUnlock()
}

func (s *Stats) recordError(n int) {
	s.lock.WriteLock()
	s.packets++
	s.bytes += uint64(n)
	s.errors++
	s.lock.WriteUnlock()
}

func (s *Stats) recordTimerFire(cpuMiss bool) {
	s.lock.WriteLock()
	s.timerFires++
	if cpuMiss {
		s.timerCPUMiss++
	}
	s.lock.WriteUnlock()
}

// Read returns a consistent snapshot of every counter.
func (s *Stats) Read() Snapshot {
	for {
		seq := s.lock.ReadBegin()
		snap := Snapshot{
			Packets:      s.packets,
			Bytes:        s.bytes,
			Errors:       s.errors,
			Drops:        s.drops,
			TimerFires:   s.timerFires,
			TimerCPUMiss: s.timerCPUMiss,
		}
		if !s.lock.ReadRetry(seq) {
			return snap
		}
	}
}

// Invariant checks the universal property of spec.md §8:
// packets = success + dropped + error. Successes are not counted
// separately, so it checks that drops and errors together do not exceed
// packets, leaving a non-negative success count.
func (snap Snapshot) Invariant() bool {
	return snap.Drops+snap.Errors <= snap.Packets
}
