// Package engine implements the per-CPU (here: per-worker-goroutine)
// packet-processing loop of spec.md §4.5: Worker owns ingress/egress
// queues and a traversal loop; Engine owns a fleet of Workers plus the
// registry and scheduler policy that feed them.
package engine

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"code.hybscloud.com/netfab"
	"code.hybscloud.com/netfab/bufpool"
	"code.hybscloud.com/netfab/scheduler"
)

// Engine owns every worker and the scheduler policy used to route
// incoming packets to one of them (spec.md §4.4, §4.5).
type Engine struct {
	Registry *netfab.Registry
	Policy   scheduler.Policy
	Workers  []*Worker

	// handles is the packet-handle table shared by every worker: Dispatch
	// checks a packet in and hands the resulting integer handle to the
	// chosen worker's queue (spec.md §2: queues carry handles, not
	// pointers).
	handles *bufpool.BoundedPool[*netfab.Packet]

	log *logrus.Logger
}

// Config controls how an Engine is constructed.
type Config struct {
	NumWorkers    int
	SchedulerName string
	QueueCapacity int
}

// New builds an Engine with NumWorkers workers, a fresh Registry sized
// for that many readers (plus one for the control plane), and the named
// scheduler policy.
func New(cfg Config, log *logrus.Logger) (*Engine, error) {
	if cfg.NumWorkers <= 0 {
		return nil, errors.New("engine: NumWorkers must be positive")
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 1024
	}

	registry := netfab.NewRegistry(cfg.NumWorkers + 1)
	policy, err := scheduler.New(cfg.SchedulerName, cfg.NumWorkers)
	if err != nil {
		return nil, errors.Wrap(err, "engine: scheduler")
	}

	handleCap := cfg.NumWorkers * cfg.QueueCapacity * 2
	handles := bufpool.NewBoundedPool[*netfab.Packet](handleCap)
	handles.Fill(func() *netfab.Packet { return nil })
	handles.SetNonblock(true)

	e := &Engine{Registry: registry, Policy: policy, handles: handles, log: log}
	for i := 0; i < cfg.NumWorkers; i++ {
		e.Workers = append(e.Workers, NewWorker(i, registry, handles, cfg.QueueCapacity, log))
	}
	return e, nil
}

// Start launches every worker's drain loop on its own goroutine.
func (e *Engine) Start() {
	for _, w := range e.Workers {
		go w.Run()
	}
	e.log.WithField("workers", len(e.Workers)).Info("engine started")
}

// Stop signals every worker to exit its drain loop and waits for them all
// to finish, in reverse of Start's launch order.
func (e *Engine) Stop() {
	for i := len(e.Workers) - 1; i >= 0; i-- {
		e.Workers[i].Stop()
	}
	e.log.Info("engine stopped")
}

// Dispatch schedules pkt onto the worker the policy selects for dir
// (spec.md §4.4).
func (e *Engine) Dispatch(pkt *netfab.Packet, dir netfab.Direction) error {
	id := e.Policy.Schedule(int(dir), pkt.Len())
	if id < 0 || id >= len(e.Workers) {
		return errors.Errorf("engine: scheduler returned out-of-range worker %d", id)
	}
	w := e.Workers[id]
	switch dir {
	case netfab.Ingress:
		return w.EnqueueIngress(pkt)
	default:
		return w.EnqueueEgress(pkt)
	}
}

// Stats returns a snapshot of every worker's counters, keyed by worker id.
func (e *Engine) Stats() []Snapshot {
	out := make([]Snapshot, len(e.Workers))
	for i, w := range e.Workers {
		out[i] = w.Stats.Read()
	}
	return out
}
