package scheduler

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// randomPolicy schedules each packet onto a uniformly random worker,
// grounded on sd_rand.c's "random CPU" discipline. The original selects a
// CPU with `idx & (num_cpus - 1)` applied to a PRNG word, which is only
// uniform when num_cpus is a power of two and silently biased otherwise
// (spec.md §9's Open Question). This implementation instead uses
// math/rand/v2's N, which is uniform over any positive n.
type randomPolicy struct {
	nWorkers int
}

func init() {
	Register("random-cpu", func(nWorkers int) Policy {
		return &randomPolicy{nWorkers: nWorkers}
	})
}

func (p *randomPolicy) Name() string { return "random-cpu" }

func (p *randomPolicy) Schedule(_ int, _ int) int {
	return rand.N(p.nWorkers)
}

func errInvalidWorker(workerID, nWorkers int) error {
	return errors.Errorf("scheduler: worker id %d out of range [0,%d)", workerID, nWorkers)
}
