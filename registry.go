package netfab

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"code.hybscloud.com/netfab/internal/critbit"
	"code.hybscloud.com/netfab/internal/epoch"
)

// Registry is the global FB namespace: IDP-to-FB lookup, name-to-FB
// lookup, and the control lock serializing every mutation (spec.md §4.1,
// §4.2). Data-path lookups (LookupByIDP) are wait-free: they read an
// immutable snapshot published with an atomic pointer swap, the same
// copy-on-write discipline the original source gets from RCU.
type Registry struct {
	mu sync.Mutex // control lock: serializes Publish/Unpublish/Replace/Bind/Unbind

	idAlloc *idpAllocator
	names   critbit.Tree // control-plane only, guarded by mu

	byIDP atomic.Pointer[map[IDP]*FB] // wait-free read path
	byNm  map[string]*FB              // guarded by mu; name -> FB

	reclaim *epoch.Reclaimer
}

// NewRegistry returns an empty Registry. nReaders sizes the epoch
// reclaimer's reader slots; it should be the worker count plus one for the
// control plane (spec.md §9's RCU-vs-epoch design note).
func NewRegistry(nReaders int) *Registry {
	r := &Registry{
		idAlloc: newIDPAllocator(),
		byNm:    make(map[string]*FB),
		reclaim: epoch.NewReclaimer(nReaders),
	}
	empty := make(map[IDP]*FB)
	r.byIDP.Store(&empty)
	return r
}

// EnterReader/ExitReader bracket a data-path goroutine's use of
// LookupByIDP results, so the registry knows when it is safe to reclaim a
// replaced or removed FB (spec.md §9). Workers call these once per packet,
// around ProcessPacket's traversal.
func (r *Registry) EnterReader(reader int) { r.reclaim.Enter(reader) }
func (r *Registry) ExitReader(reader int)  { r.reclaim.Exit(reader) }

// LookupByIDP returns the FB published under idp without incrementing its
// refcount. Callers holding a reader slot (EnterReader) may dereference
// the result until their matching ExitReader.
func (r *Registry) LookupByIDP(idp IDP) (*FB, bool) {
	m := *r.byIDP.Load()
	fb, ok := m[idp]
	return fb, ok
}

// LookupByName returns the FB published under name and increments its
// refcount (spec.md §4.2: "lookups... are assumed to return a reference").
// Callers must Put the result when done.
func (r *Registry) LookupByName(name string) (*FB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fb, ok := r.byNm[name]
	if !ok {
		return nil, ErrNotFound
	}
	fb.Get()
	return fb, nil
}

// Publish assigns fb a fresh IDP and makes it visible to both lookup paths
// (spec.md §4.2: register_fb). fb must have been created with AllocFB and
// InitFB and must not already be registered.
func (r *Registry) Publish(fb *FB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fb.IsRegistered() {
		return errors.Wrap(ErrInvalid, "publish: already registered")
	}
	if _, exists := r.byNm[fb.name]; exists {
		return errors.Wrapf(ErrInUse, "publish: name %q", fb.name)
	}

	idp, err := r.idAlloc.allocate()
	if err != nil {
		return err
	}

	fb.idp = idp
	fb.flags.Or(FlagRegistered)
	r.byNm[fb.name] = fb
	r.names.Insert(terminated(fb.name))
	r.publishIDPLocked(idp, fb)
	return nil
}

// Unpublish removes fb from both lookup paths and defers freeing its slot
// until the epoch reclaimer confirms no in-flight reader can still
// observe it (spec.md §4.2: unregister_fb). Returns ErrBusy if fb's
// refcount indicates an outstanding user beyond the registry's own
// reference and the caller's.
func (r *Registry) Unpublish(fb *FB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !fb.IsRegistered() {
		return errors.Wrap(ErrInvalid, "unpublish: not registered")
	}
	if fb.RefCount() > 2 {
		return errors.Wrapf(ErrBusy, "unpublish: %s refcount=%d", fb.name, fb.RefCount())
	}

	fb.flags.Or(FlagExiting)
	delete(r.byNm, fb.name)
	r.names.Delete(terminated(fb.name))
	r.removeIDPLocked(fb.idp)

	idp := fb.idp
	r.reclaim.Retire(func() {
		_ = idp // the slot itself was already removed from the snapshot; this
		// closure exists to let a future generation release any indirect
		// resources fb.private holds, once no reader can see it.
	})
	return nil
}

// Replace atomically swaps the FB published under name1 for the FB
// currently published under name2, without a window where lookups see
// neither (spec.md §6: "Replace name1's slot with name2"). name2's own
// name entry is consumed by the move: afterward only name1 resolves to
// the surviving FB, which now carries name1's former IDP. The dropPriv
// argument is accepted and ignored: Replace never transfers the old FB's
// private state to the survivor, whatever the flag says.
func (r *Registry) Replace(name1, name2 string, _ dropPriv) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	oldFB, ok := r.byNm[name1]
	if !ok {
		return errors.Wrapf(ErrNotFound, "replace: %q", name1)
	}
	newFB, ok := r.byNm[name2]
	if !ok {
		return errors.Wrapf(ErrNotFound, "replace: %q", name2)
	}

	idp := oldFB.idp
	delete(r.byNm, name2)
	r.names.Delete(terminated(name2))

	newFB.name = name1
	newFB.idp = idp
	newFB.flags.Or(FlagRegistered)

	r.byNm[name1] = newFB
	r.publishIDPLocked(idp, newFB)

	oldFB.flags.Or(FlagExiting)
	r.reclaim.Retire(func() {})
	return nil
}

// dropPriv is a named bool to keep Replace's call sites self-documenting.
type dropPriv = bool

// Subscribe/Unsubscribe look sink and source up by name and wire the
// subscription, matching the message-level SUBSCRIBE/UNSUBSCRIBE
// operations (spec.md §6).
func (r *Registry) Subscribe(sourceName, sinkName string) error {
	source, sink, err := r.pairLocked(sourceName, sinkName)
	if err != nil {
		return err
	}
	source.Subscribe(sink)
	return nil
}

func (r *Registry) Unsubscribe(sourceName, sinkName string) error {
	source, sink, err := r.pairLocked(sourceName, sinkName)
	if err != nil {
		return err
	}
	source.Unsubscribe(sink)
	return nil
}

func (r *Registry) pairLocked(sourceName, sinkName string) (source, sink *FB, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	source, ok := r.byNm[sourceName]
	if !ok {
		return nil, nil, errors.Wrapf(ErrNotFound, "subscribe: source %q", sourceName)
	}
	sink, ok = r.byNm[sinkName]
	if !ok {
		return nil, nil, errors.Wrapf(ErrNotFound, "subscribe: sink %q", sinkName)
	}
	return source, sink, nil
}

// portsOf returns fb's per-worker PortState slice. FBs that take part in
// binding (anything other than a pure sink) must set their Private state
// to a []*PortState, one entry per worker id, via NewPortState per slot.
func portsOf(fb *FB) ([]*PortState, error) {
	ps, ok := fb.Private().([]*PortState)
	if !ok {
		return nil, errors.Wrapf(ErrInvalid, "%s: not port-addressable", fb.Name())
	}
	return ps, nil
}

// Bind implements spec.md §6's BIND: name2 learns name1's IDP on its
// egress port, and name1 learns name2's IDP on its ingress port, applied
// to every worker's PortState under the control lock (spec.md §4.3,
// §5: "BIND ordering across CPUs for a single FB is serialized by the
// control lock").
func (r *Registry) Bind(name1, name2 string) error {
	// Deliveries run after the control lock is released (deferred calls
	// run in reverse order, so this one runs after the Unlock below).
	var notify []func()
	defer func() {
		for _, f := range notify {
			f()
		}
	}()
	r.mu.Lock()
	defer r.mu.Unlock()

	fb1, ok := r.byNm[name1]
	if !ok {
		return errors.Wrapf(ErrNotFound, "bind: %q", name1)
	}
	fb2, ok := r.byNm[name2]
	if !ok {
		return errors.Wrapf(ErrNotFound, "bind: %q", name2)
	}

	ports1, err := portsOf(fb1)
	if err != nil {
		return err
	}
	ports2, err := portsOf(fb2)
	if err != nil {
		return err
	}

	for _, p := range ports1 {
		if err := p.Bind(Ingress, fb2.idp, true); err != nil {
			return err
		}
	}
	for _, p := range ports2 {
		if err := p.Bind(Egress, fb1.idp, true); err != nil {
			return err
		}
	}

	ev1 := Event{Kind: BindIDP, Dir: Ingress, IDP: fb2.idp}
	ev2 := Event{Kind: BindIDP, Dir: Egress, IDP: fb1.idp}
	notify = append(notify, func() { fb1.Deliver(ev1) }, func() { fb2.Deliver(ev2) })
	return nil
}

// Unbind reverses Bind: it clears name1's ingress port and name2's
// egress port, but only where they still match the expected IDP
// (spec.md §4.3: UNBIND is BAD unless the current port exactly matches
// the idp being removed, and §8's "BIND idempotence" property). The
// first mismatch encountered is returned; already-cleared ports are not
// rolled back, matching the original's per-port independent unbind.
func (r *Registry) Unbind(name1, name2 string) error {
	// As in Bind, deliveries run after the control lock is released.
	var notify []func()
	defer func() {
		for _, f := range notify {
			f()
		}
	}()
	r.mu.Lock()
	defer r.mu.Unlock()

	fb1, ok := r.byNm[name1]
	if !ok {
		return errors.Wrapf(ErrNotFound, "unbind: %q", name1)
	}
	fb2, ok := r.byNm[name2]
	if !ok {
		return errors.Wrapf(ErrNotFound, "unbind: %q", name2)
	}

	ports1, err := portsOf(fb1)
	if err != nil {
		return err
	}
	ports2, err := portsOf(fb2)
	if err != nil {
		return err
	}

	var firstErr error
	side1Cleared, side2Cleared := false, false
	for _, p := range ports1 {
		if err := p.Unbind(Ingress, fb2.idp); err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "unbind: %s ingress != %d", name1, fb2.idp)
			}
		} else {
			side1Cleared = true
		}
	}
	for _, p := range ports2 {
		if err := p.Unbind(Egress, fb1.idp); err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "unbind: %s egress != %d", name2, fb1.idp)
			}
		} else {
			side2Cleared = true
		}
	}

	if side1Cleared {
		ev := Event{Kind: UnbindIDP, Dir: Ingress, IDP: fb2.idp}
		notify = append(notify, func() { fb1.Deliver(ev) })
	}
	if side2Cleared {
		ev := Event{Kind: UnbindIDP, Dir: Egress, IDP: fb1.idp}
		notify = append(notify, func() { fb2.Deliver(ev) })
	}
	return firstErr
}

// publishIDPLocked copy-on-writes a new byIDP snapshot with idp -> fb set.
// Caller must hold mu.
func (r *Registry) publishIDPLocked(idp IDP, fb *FB) {
	old := *r.byIDP.Load()
	next := make(map[IDP]*FB, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[idp] = fb
	r.byIDP.Store(&next)
}

// removeIDPLocked copy-on-writes a new byIDP snapshot with idp removed.
// Caller must hold mu.
func (r *Registry) removeIDPLocked(idp IDP) {
	old := *r.byIDP.Load()
	next := make(map[IDP]*FB, len(old))
	for k, v := range old {
		if k != idp {
			next[k] = v
		}
	}
	r.byIDP.Store(&next)
}

// Names returns every published FB name in ascending order, used by the
// control-plane listing path; never called from the data path.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	r.names.Walk(func(key []byte) bool {
		out = append(out, string(key[:len(key)-1])) // strip NUL terminator
		return true
	})
	return out
}

// terminated appends a NUL terminator so the crit-bit tree never confuses
// one name with a proper prefix of another (internal/critbit reads bytes
// past a key's end as zero).
func terminated(name string) []byte {
	b := make([]byte, len(name)+1)
	copy(b, name)
	return b
}
