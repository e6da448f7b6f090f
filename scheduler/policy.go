// Package scheduler implements the engine's pluggable CPU-selection
// policies (spec.md §4.4): given a packet and direction, a Policy decides
// which worker id should process it next.
//
// Grounded on sd_single.c and sd_rand.c from original_source/: the
// original keeps a table of named "sched_discipline" modules, selected at
// runtime via sysfs. This package mirrors that with a named registry, but
// Go has no dynamic-module-load analogue, so policies register themselves
// at init time instead.
package scheduler

import (
	"sync"

	"github.com/pkg/errors"
)

// Policy picks the worker id that should handle a packet travelling in
// dir. Implementations must be safe for concurrent use: the control plane
// may bind/unbind FBs while workers are concurrently scheduling packets.
type Policy interface {
	Name() string
	Schedule(dir int, payloadHint int) (workerID int)
}

var (
	mu       sync.Mutex
	policies = map[string]func(nWorkers int) Policy{}
)

// Register makes a named policy constructor available to Config. Intended
// to be called from each policy file's init().
func Register(name string, newPolicy func(nWorkers int) Policy) {
	mu.Lock()
	defer mu.Unlock()
	policies[name] = newPolicy
}

// New constructs the named policy for an engine with nWorkers workers.
func New(name string, nWorkers int) (Policy, error) {
	mu.Lock()
	ctor, ok := policies[name]
	mu.Unlock()
	if !ok {
		return nil, errors.Errorf("scheduler: unknown policy %q", name)
	}
	if nWorkers <= 0 {
		return nil, errors.Errorf("scheduler: nWorkers must be positive, got %d", nWorkers)
	}
	return ctor(nWorkers), nil
}

// Names returns every registered policy name, for CLI help text and
// config validation.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(policies))
	for name := range policies {
		out = append(out, name)
	}
	return out
}
