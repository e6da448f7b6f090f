// Package tee implements the tee functional block of spec.md §4.7, the
// spec's representative multi-port FB: it forwards a packet to its
// primary port and, if a clone port is bound, deep-copies the packet onto
// the current worker's backlog with the same direction.
//
// Grounded almost line-for-line on original_source/fb_tee.c: a seqlock
// read of (port[dir], port_clone), a deep copy via pktgen-style clone for
// the side branch, and bind logic that falls through primary to clone
// when the primary is already taken.
package tee

import "code.hybscloud.com/netfab"

// Backlogger is the subset of engine.Worker that tee needs to stash a
// cloned packet for re-processing on the same worker (spec.md §4.7:
// "enqueue the copy onto the current worker's backlog"). Kept as a small
// interface here, rather than importing the engine package, so tee
// depends only on package netfab.
type Backlogger interface {
	Backlog(pkt *netfab.Packet, dir netfab.Direction)
}

// New returns a Factory that builds tee FBs with one PortState per
// worker (spec.md §3: port state is "held once per worker" to avoid
// false sharing). resolveWorker maps an in-flight packet to the
// Backlogger of the worker currently processing it and the index of
// that worker's PortState slot.
func New(nWorkers int, resolveWorker func(pkt *netfab.Packet) (w Backlogger, workerID int)) *netfab.Factory {
	return &netfab.Factory{
		Type: "tee",
		New: func(name string) (*netfab.FB, error) {
			ports := make([]*netfab.PortState, nWorkers)
			for i := range ports {
				ports[i] = netfab.NewPortState()
			}
			fb := netfab.AllocFB()
			if err := netfab.InitFB(fb, name, ports); err != nil {
				return nil, err
			}
			fb.NetRx = func(fb *netfab.FB, pkt *netfab.Packet, dir *netfab.Direction) netfab.Verdict {
				w, workerID := resolveWorker(pkt)
				return netRx(fb, pkt, dir, w, workerID)
			}
			return fb, nil
		},
	}
}

// netRx implements the tee data-path callback.
func netRx(fb *netfab.FB, pkt *netfab.Packet, dir *netfab.Direction, w Backlogger, workerID int) netfab.Verdict {
	ports := fb.Private().([]*netfab.PortState)[workerID]
	next, clone := ports.Read(*dir)

	if clone != netfab.IDPExit && w != nil {
		cp := pkt.Clone()
		cp.PushNextIDP(clone)
		w.Backlog(cp, *dir)
	}

	if next == netfab.IDPExit {
		return netfab.Dropped
	}
	pkt.PushNextIDP(next)
	return netfab.Success
}
