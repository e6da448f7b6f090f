package engine

import "code.hybscloud.com/netfab"

// ProcessPacket implements the traversal loop of spec.md §4.5 step 3: it
// walks the packet's next-hop FIFO, resolving each IDP against the
// registry under a read-side critical section, invoking the resolved
// FB's data-path callback, and stopping on the sentinel, a drop, a
// resolution failure, or hop-budget exhaustion.
//
// The caller has already claimed the worker's recursion guard. Once
// ProcessPacket returns, the caller (Worker.runOne) releases pkt's
// pooled payload regardless of verdict; Dropped still means "do not
// touch pkt again" even though Go has no explicit free.
func (w *Worker) ProcessPacket(reader int, pkt *netfab.Packet, dir netfab.Direction) netfab.Verdict {
	w.registry.EnterReader(reader)
	defer w.registry.ExitReader(reader)

	for {
		idp, ok := pkt.ReadNextIDP()
		if !ok {
			if pkt.HopsExceeded() {
				return netfab.Error
			}
			return netfab.Success
		}
		if idp == netfab.IDPExit {
			return netfab.Success
		}

		fb, found := w.registry.LookupByIDP(idp)
		if !found {
			return netfab.Error
		}

		fb.Get()
		verdict := fb.NetRx(fb, pkt, &dir)
		fb.Put()

		switch verdict {
		case netfab.Dropped:
			return netfab.Dropped
		case netfab.Error:
			return netfab.Error
		}
	}
}
