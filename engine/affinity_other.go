//go:build !linux

package engine

import "errors"

// pinToCPU is a no-op on platforms without SchedSetaffinity; the worker
// still runs as a locked OS thread with affinity unset (spec.md §9's
// "best-effort" carve-out, SPEC_FULL.md §4.5).
func pinToCPU(workerID int) error {
	return errors.New("engine: CPU affinity not supported on this platform")
}
