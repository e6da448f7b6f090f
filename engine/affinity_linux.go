//go:build linux

package engine

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCPU attempts to restrict the calling OS thread's affinity to a
// single CPU, modulo the number of CPUs actually online (spec.md §9:
// "per-CPU" becomes "per worker id", affinity is best-effort). Callers
// must have already called runtime.LockOSThread.
func pinToCPU(workerID int) error {
	n := runtime.NumCPU()
	if n == 0 {
		return nil
	}
	var set unix.CPUSet
	set.Set(workerID % n)
	return unix.SchedSetaffinity(0, &set)
}
