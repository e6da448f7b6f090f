package netfab

import "sync/atomic"

// IDP is the stable 32-bit identifier of a published functional block.
// The reserved value IDPExit means "exit engine / unknown" and never names
// a live FB (spec.md §3).
type IDP uint32

// IDPExit is the sentinel IDP: end of traversal, or "no FB bound here yet".
const IDPExit IDP = 0

// idpAllocator hands out IDPs from a counter starting at 1. IDPs are
// never reused: there is no release path and no free list, so an unpublished
// FB's IDP is not returned to the allocator, and allocation fails once all
// 2^32-1 values have been handed out.
type idpAllocator struct {
	next atomic.Uint32
}

func newIDPAllocator() *idpAllocator {
	a := &idpAllocator{}
	a.next.Store(uint32(IDPExit))
	return a
}

// allocate returns a fresh IDP, always >= 1.
func (a *idpAllocator) allocate() (IDP, error) {
	v := a.next.Add(1)
	if v == 0 {
		// wrapped around all of uint32: exhausted IDP space
		return IDPExit, ErrNoMem
	}
	return IDP(v), nil
}
