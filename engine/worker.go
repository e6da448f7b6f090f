package engine

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"code.hybscloud.com/netfab"
	"code.hybscloud.com/netfab/bufpool"
	"code.hybscloud.com/netfab/queue"
)

// backlogThreshold is the spec's "≤150" mis-scheduled-CPU rule (spec.md
// §4.5, Backlog variant): the rescue timer drops stale backlog work only
// when it is at most this size; otherwise it still drains it in place to
// avoid head-of-line blocking.
const backlogThreshold = 150

// rescueInterval is the periodic backlog-drain tick.
const rescueInterval = 100 * time.Millisecond

// state is a worker's lifecycle state (spec.md §4.5: "starting → idle →
// draining → idle … stopping").
type state int32

const (
	stateStarting state = iota
	stateIdle
	stateDraining
	stateStopping
)

// Worker owns one pinned traversal loop with its own ingress/egress
// queues, a reentrancy backlog, and observability counters (spec.md
// §4.5). ID stands in for "CPU id": Go cannot pin a goroutine to a
// physical core, so Worker pins its goroutine's OS thread instead and
// treats ID purely as the addressing scheme the scheduler and FB port
// state use (see SPEC_FULL.md §4.5, §9).
type Worker struct {
	ID int

	registry *netfab.Registry

	// handles is the shared packet-handle table: queues below carry
	// indices into it rather than *netfab.Packet pointers directly
	// (spec.md §2: "per-worker queues store packet handles... rather
	// than pointers"), mirroring how bufpool.BoundedPool already hands
	// out indirect indices instead of buffer pointers.
	handles *bufpool.BoundedPool[*netfab.Packet]

	ingress *queue.Ring[item]
	egress  *queue.Ring[item]

	waker chan struct{}
	stop  chan struct{}
	done  chan struct{}

	state atomic.Int32

	// active guards against re-entrant ProcessPacket calls: an FB callback
	// that calls back into the engine while a packet is mid-flight appends
	// to backlog instead of recursing (spec.md §4.5, "Recursion control").
	active atomic.Bool

	backlogMu sync.Mutex
	backlog   []item

	Stats Stats

	log *logrus.Entry
}

// item pairs a packet handle (an index into the shared handle table)
// with the direction it should be processed in.
type item struct {
	handle int
	dir    netfab.Direction
}

// NewWorker creates a worker with the given queue capacities, sharing
// handles with every other worker of the same Engine so a packet handed
// off between workers (e.g. a rescheduled egress hop) resolves to the
// same table. The worker's id doubles as the epoch-reclaimer reader slot
// it uses when reading the registry.
func NewWorker(id int, registry *netfab.Registry, handles *bufpool.BoundedPool[*netfab.Packet], queueCap int, log *logrus.Logger) *Worker {
	w := &Worker{
		ID:       id,
		registry: registry,
		handles:  handles,
		ingress:  queue.New[item](queueCap),
		egress:   queue.New[item](queueCap),
		waker:    make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      log.WithField("worker", id),
	}
	w.state.Store(int32(stateStarting))
	return w
}

// checkoutHandle stores pkt in the shared handle table and returns its
// index, or bufpool's ErrWouldBlock if the table is exhausted (the
// packet is dropped rather than queued, matching the non-blocking
// allocation discipline).
func (w *Worker) checkoutHandle(pkt *netfab.Packet) (int, error) {
	h, err := w.handles.Get()
	if err != nil {
		return 0, err
	}
	w.handles.SetValue(h, pkt)
	return h, nil
}

// EnqueueIngress/EnqueueEgress are the scheduler's entry points (spec.md
// §4.4: "schedule(packet, direction) enqueues packet on some worker's
// queue"). Multiple goroutines may call these concurrently; the queue is
// MPSC-safe (spec.md §5). pkt is checked into the shared handle table so
// only its integer handle travels through the queue.
func (w *Worker) EnqueueIngress(pkt *netfab.Packet) error {
	h, err := w.checkoutHandle(pkt)
	if err != nil {
		return err
	}
	if err := w.ingress.Push(item{handle: h, dir: netfab.Ingress}); err != nil {
		_ = w.handles.Put(h)
		return err
	}
	w.wake()
	return nil
}

func (w *Worker) EnqueueEgress(pkt *netfab.Packet) error {
	h, err := w.checkoutHandle(pkt)
	if err != nil {
		return err
	}
	if err := w.egress.Push(item{handle: h, dir: netfab.Egress}); err != nil {
		_ = w.handles.Put(h)
		return err
	}
	w.wake()
	return nil
}

func (w *Worker) wake() {
	select {
	case w.waker <- struct{}{}:
	default:
	}
}

// Run pins the calling goroutine to its OS thread (best-effort CPU
// affinity if the platform supports it) and executes the drain loop until
// Stop is called. Run is meant to be launched with `go worker.Run()`.
func (w *Worker) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)

	if err := pinToCPU(w.ID); err != nil {
		w.log.WithError(err).Debug("CPU affinity not available on this platform; continuing unpinned")
	}

	w.state.Store(int32(stateIdle))
	ticker := time.NewTicker(rescueInterval)
	defer ticker.Stop()

	reader := w.ID
	for {
		select {
		case <-w.stop:
			w.state.Store(int32(stateStopping))
			return
		case <-ticker.C:
			w.runRescue()
		case <-w.waker:
		}

		for {
			handle, dir, ok := w.dequeue()
			if !ok {
				break
			}
			w.state.Store(int32(stateDraining))
			w.runOne(reader, handle, dir)
		}
		w.state.Store(int32(stateIdle))
	}
}

// Stop signals the worker to exit its drain loop and waits for it to do
// so.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

// dequeue implements the fixed INGRESS-before-EGRESS priority scan
// (spec.md §4.5, step 1).
func (w *Worker) dequeue() (handle int, dir netfab.Direction, ok bool) {
	if it, err := w.ingress.Pop(); err == nil {
		return it.handle, it.dir, true
	}
	if it, err := w.egress.Pop(); err == nil {
		return it.handle, it.dir, true
	}
	w.backlogMu.Lock()
	defer w.backlogMu.Unlock()
	if len(w.backlog) > 0 {
		it := w.backlog[0]
		w.backlog = w.backlog[1:]
		return it.handle, it.dir, true
	}
	return 0, 0, false
}

// runOne resolves handle to its packet, runs it through ProcessPacket
// guarded by the recursion-control flag, records the outcome, and
// releases both the handle and (once the traversal has truly ended) the
// packet's pooled payload. Once it is done it drains whatever backlog
// accumulated while active was held, iteratively rather than recursing,
// matching spec.md's "after the outer packet completes, the engine drains
// the backlog via goto-style loop."
func (w *Worker) runOne(reader int, handle int, dir netfab.Direction) {
	for {
		if !w.runOneStep(reader, handle, dir) {
			return
		}
		var ok bool
		handle, dir, ok = w.popBacklog()
		if !ok {
			return
		}
	}
}

// runOneStep runs a single packet through ProcessPacket. It returns false
// if the call was re-entrant (the packet was appended to backlog instead
// of processed now), signaling the caller not to continue draining on this
// stack frame.
func (w *Worker) runOneStep(reader int, handle int, dir netfab.Direction) bool {
	pkt := w.handles.Value(handle)
	n := pkt.Len()
	if pkt.IsTimeMarkedFirst() {
		pkt.TimeFirst = time.Now()
	}

	if !w.active.CompareAndSwap(false, true) {
		w.backlogMu.Lock()
		w.backlog = append(w.backlog, item{handle: handle, dir: dir})
		w.backlogMu.Unlock()
		return false
	}
	verdict := w.ProcessPacket(reader, pkt, dir)
	w.active.Store(false)

	if pkt.IsTimeMarkedLast() {
		pkt.TimeLast = time.Now()
	}

	switch verdict {
	case netfab.Success:
		w.Stats.recordSuccess(n)
	case netfab.Dropped:
		w.Stats.recordDrop(n)
	case netfab.Error:
		w.Stats.recordError(n)
	}

	_ = pkt.Release()
	_ = w.handles.Put(handle)
	return true
}

// popBacklog removes and returns the oldest backlog entry, if any.
func (w *Worker) popBacklog() (handle int, dir netfab.Direction, ok bool) {
	w.backlogMu.Lock()
	defer w.backlogMu.Unlock()
	if len(w.backlog) == 0 {
		return 0, 0, false
	}
	it := w.backlog[0]
	w.backlog = w.backlog[1:]
	return it.handle, it.dir, true
}

// drainBacklog processes whatever accumulated in backlog while active was
// held.
func (w *Worker) drainBacklog(reader int) {
	for {
		handle, dir, ok := w.popBacklog()
		if !ok {
			return
		}
		w.runOne(reader, handle, dir)
	}
}

// Backlog checks pkt into the shared handle table and appends its handle
// to this worker's backlog queue (used by re-entrant FB callbacks such as
// tee's clone path, spec.md §4.7). A checkout failure drops the clone
// rather than blocking, matching the non-blocking allocation discipline.
func (w *Worker) Backlog(pkt *netfab.Packet, dir netfab.Direction) {
	h, err := w.checkoutHandle(pkt)
	if err != nil {
		w.Stats.recordDrop(pkt.Len())
		return
	}
	w.backlogMu.Lock()
	w.backlog = append(w.backlog, item{handle: h, dir: dir})
	w.backlogMu.Unlock()
}

// runRescue drains the backlog on the rescue timer, applying the
// mis-scheduled-CPU rule (spec.md §4.5, Backlog variant): with at most
// backlogThreshold items it is safe to drop them; above that, they are
// still processed in place to avoid head-of-line blocking.
func (w *Worker) runRescue() {
	w.backlogMu.Lock()
	n := len(w.backlog)
	w.backlogMu.Unlock()
	if n == 0 {
		return
	}

	misScheduled := onCPUMiss()
	w.Stats.recordTimerFire(misScheduled)
	if misScheduled && n <= backlogThreshold {
		w.backlogMu.Lock()
		dropped := w.backlog
		w.backlog = nil
		w.backlogMu.Unlock()
		for _, it := range dropped {
			pkt := w.handles.Value(it.handle)
			w.Stats.recordDrop(pkt.Len())
			_ = pkt.Release()
			_ = w.handles.Put(it.handle)
		}
		return
	}
	w.drainBacklog(w.ID)
}

// onCPUMiss reports whether the calling goroutine is running somewhere
// other than its worker's nominal CPU. Go provides no portable way to ask
// "which CPU is this thread on right now"; since SchedSetaffinity is
// already best-effort (see Run), this always reports false rather than
// reading a platform-specific /proc file for an advisory-only check.
func onCPUMiss() bool { return false }

// State returns the worker's current lifecycle state, for diagnostics.
func (w *Worker) State() string {
	switch state(w.state.Load()) {
	case stateStarting:
		return "starting"
	case stateIdle:
		return "idle"
	case stateDraining:
		return "draining"
	case stateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
