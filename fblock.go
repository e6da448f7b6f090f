package netfab

import (
	"sync"
	"sync/atomic"
)

// FBNameSize bounds a functional block's name, mirroring the source's
// FBNAMSIZ (IFNAMSIZ, 16 bytes including the NUL terminator).
const FBNameSize = 16

// FB flags (spec.md §3).
const (
	FlagRegistered uint32 = 1 << iota
	FlagExiting
)

// NetRxFunc is an FB's data-path callback. It must return with refcount
// balanced; the engine releases the packet's pooled payload once the
// traversal ends regardless of verdict (spec.md §3's "responsibility for
// freeing the packet on drop belongs to the callback", centralized here
// in the engine rather than duplicated in every callback).
type NetRxFunc func(fb *FB, pkt *Packet, dir *Direction) Verdict

// EventRxFunc is an FB's control-path callback handling bind/unbind/option
// events (spec.md §4.3).
type EventRxFunc func(fb *FB, ev Event) error

// Factory describes an FB type: its type name and how to construct
// instances of it. Registered once per process via RegisterFactory (the Go analogue of
// the source's insmod'd kernel module, since Go has no safe dynamic
// loading equivalent).
type Factory struct {
	Type string
	New  func(name string) (*FB, error)
}

// FB (functional block) is the central entity of the engine: a named,
// IDP-addressed node with a data-path callback, a control-path callback,
// and a set of subscribers notified on events (spec.md §3).
type FB struct {
	name string
	idp  IDP

	flags atomic.Uint32

	refcount atomic.Int32

	factory *Factory
	private any

	NetRx   NetRxFunc
	EventRx EventRxFunc

	mu          sync.Mutex
	subscribers []*FB
}

// AllocFB returns a zeroed FB with refcount 1, not yet published
// (spec.md §4.2: alloc_fb).
func AllocFB() *FB {
	fb := &FB{}
	fb.refcount.Store(1)
	return fb
}

// InitFB sets name and private state on a freshly allocated FB. It does
// NOT publish the FB into the registry (spec.md §4.2: init_fb).
func InitFB(fb *FB, name string, private any) error {
	if len(name) == 0 || len(name) > FBNameSize-1 {
		return ErrInvalid
	}
	fb.name = name
	fb.private = private
	return nil
}

// Name returns the FB's name.
func (fb *FB) Name() string { return fb.name }

// IDP returns the FB's assigned IDP (zero until published).
func (fb *FB) IDP() IDP { return fb.idp }

// Private returns the FB's per-type private state.
func (fb *FB) Private() any { return fb.private }

// Factory returns the FB's originating factory, or nil for FBs created
// outside the factory path (spec.md §3: e.g. virtual-link slaves).
func (fb *FB) Factory() *Factory { return fb.factory }

// IsRegistered reports whether the FB has ever been published.
func (fb *FB) IsRegistered() bool { return fb.flags.Load()&FlagRegistered != 0 }

// IsExiting reports whether the FB is in the process of being unpublished.
func (fb *FB) IsExiting() bool { return fb.flags.Load()&FlagExiting != 0 }

// RefCount returns the current reference count.
func (fb *FB) RefCount() int32 { return fb.refcount.Load() }

// Get increments the reference count (spec.md §4.2: get_fb). Every
// resolved-FB traversal on the data path must pair a Get with a Put.
func (fb *FB) Get() { fb.refcount.Add(1) }

// Put decrements the reference count and reports whether it reached zero.
// A caller that observes true and is not the registry itself should not
// free anything directly; only Registry.Unpublish schedules reclamation.
func (fb *FB) Put() bool { return fb.refcount.Add(-1) == 0 }

// Subscribe adds sink to fb's subscriber set (spec.md §4.2: subscribe).
func (fb *FB) Subscribe(sink *FB) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, s := range fb.subscribers {
		if s == sink {
			return
		}
	}
	fb.subscribers = append(fb.subscribers, sink)
}

// Unsubscribe removes sink from fb's subscriber set.
func (fb *FB) Unsubscribe(sink *FB) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for i, s := range fb.subscribers {
		if s == sink {
			fb.subscribers = append(fb.subscribers[:i], fb.subscribers[i+1:]...)
			return
		}
	}
}

// Deliver invokes ev on every current subscriber's EventRx, notifying
// anything that subscribed to fb's control-plane events (spec.md §4.2:
// "deliver means iterate subscribers and invoke event_rx"). Called by the
// registry after a BIND/UNBIND, and by the control dispatcher after a
// SET_OPT, that targets fb, mirroring
// fb_ethvlink.c's hook notifier chain. Per spec.md §9's Open Question
// resolution, delivery order is unspecified and the control lock must not
// be held while this runs.
func (fb *FB) Deliver(ev Event) {
	fb.mu.Lock()
	subs := append([]*FB(nil), fb.subscribers...)
	fb.mu.Unlock()

	for _, s := range subs {
		if s.EventRx != nil {
			_ = s.EventRx(s, ev)
		}
	}
}
