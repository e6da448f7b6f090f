package scheduler

// singlePolicy always schedules onto one fixed worker id, grounded on
// sd_single.c's "single CPU" discipline: every packet for every FB using
// this policy lands on the same worker, trading parallelism for strict
// per-flow ordering.
type singlePolicy struct {
	worker int
}

func init() {
	Register("single-cpu", func(nWorkers int) Policy {
		return &singlePolicy{worker: 0}
	})
}

func (p *singlePolicy) Name() string { return "single-cpu" }

func (p *singlePolicy) Schedule(_ int, _ int) int { return p.worker }

// BindWorker pins the policy to a specific worker id, validated against
// the engine's worker count (sd_single.c rejects an out-of-range CPU at
// bind time rather than silently clamping it).
func (p *singlePolicy) BindWorker(workerID, nWorkers int) error {
	if workerID < 0 || workerID >= nWorkers {
		return errInvalidWorker(workerID, nWorkers)
	}
	p.worker = workerID
	return nil
}
