package netfab

import (
	"time"

	"code.hybscloud.com/netfab/bufpool"
)

// HopBudget caps the number of FB hops a single packet may traverse before
// the engine treats it as a cycle and drops it with an error (spec.md §9:
// "detect cycles lazily at packet-processing time by capping traversal
// length"). Bindings form a directed graph that may contain cycles; the
// engine does not try to prevent them statically.
const HopBudget = 64

// nextHopFIFOSize bounds the small FIFO of upcoming next-hop IDPs an FB can
// stage ahead of the current one (spec.md §3: "a short FIFO of the next
// few IDPs to visit"). In practice FBs only ever push one hop at a time;
// the FIFO exists so a source FB can pre-stage a short static chain.
const nextHopFIFOSize = 8

// Packet is the engine's in-flight packet buffer ("skb" in spec.md's
// terminology). It carries a payload plus a small control area: the
// next-hop FIFO, the current direction, and optional burst timing marks.
type Packet struct {
	Payload []byte

	// pool/tier/indirect track Payload's origin when it was checked out
	// of a PacketPool (pool is nil for packets built directly with
	// NewPacket, e.g. in tests). Release returns the buffer to pool.
	pool     *PacketPool
	tier     bufpool.BufferTier
	indirect int

	dir Direction

	fifo     [nextHopFIFOSize]IDP
	fifoHead int
	fifoTail int

	// SourceIDP is the IDP of the FB (typically the link-layer source)
	// that first stamped this packet.
	SourceIDP IDP

	hops int

	// TimeFirst/TimeLast mark the first and last packet of a burst, read
	// by the worker to compute the per-worker latency delta (spec.md §6).
	TimeFirst time.Time
	TimeLast  time.Time
	markFirst bool
	markLast  bool
}

// NewPacket creates a packet with the given payload and starting next-hop
// IDP for dir.
func NewPacket(payload []byte, dir Direction, nextIDP IDP) *Packet {
	p := &Packet{Payload: payload, dir: dir}
	p.PushNextIDP(nextIDP)
	return p
}

// Direction returns the packet's current direction.
func (p *Packet) Direction() Direction { return p.dir }

// SetDirection updates the packet's current direction; a functional block
// that changes direction (rare, but not forbidden by spec.md) calls this
// before returning.
func (p *Packet) SetDirection(dir Direction) { p.dir = dir }

// Len returns the payload length in bytes.
func (p *Packet) Len() int { return len(p.Payload) }

// MarkFirst/MarkLast flag this packet as the first/last of a measured
// burst; the worker stamps TimeFirst/TimeLast when it sees these flags.
func (p *Packet) MarkFirst() { p.markFirst = true }
func (p *Packet) MarkLast()  { p.markLast = true }

// IsTimeMarkedFirst/IsTimeMarkedLast report the marks set by MarkFirst/MarkLast.
func (p *Packet) IsTimeMarkedFirst() bool { return p.markFirst }
func (p *Packet) IsTimeMarkedLast() bool  { return p.markLast }

// PushNextIDP appends idp to the next-hop FIFO. Returns false if the FIFO
// is full (a caller error: no FB should stage more than a couple of hops
// ahead).
func (p *Packet) PushNextIDP(idp IDP) bool {
	next := (p.fifoTail + 1) % nextHopFIFOSize
	if next == p.fifoHead && p.fifoTail != p.fifoHead {
		return false
	}
	p.fifo[p.fifoTail] = idp
	p.fifoTail = next
	return true
}

// ReadNextIDP pops and returns the next IDP to visit, or (IDPExit, false)
// if the FIFO is empty or the hop budget has been exhausted.
func (p *Packet) ReadNextIDP() (IDP, bool) {
	if p.fifoHead == p.fifoTail {
		return IDPExit, false
	}
	if p.hops >= HopBudget {
		return IDPExit, false
	}
	idp := p.fifo[p.fifoHead]
	p.fifoHead = (p.fifoHead + 1) % nextHopFIFOSize
	p.hops++
	return idp, true
}

// HopsExceeded reports whether the packet has already traversed HopBudget
// FBs, i.e. it is caught in a bind cycle.
func (p *Packet) HopsExceeded() bool { return p.hops >= HopBudget }

// Clone returns a deep copy of the packet, used by the tee FB to duplicate
// traffic onto a clone port (spec.md §4.7). When the original's payload
// came from a PacketPool, the clone's scratch buffer is checked out of
// the same pool, from whichever tier fits the payload, rather than
// plain-copied onto the GC heap; if that tier is exhausted, Clone falls
// back to a heap copy so tee degrades gracefully instead of dropping the
// primary traversal.
func (p *Packet) Clone() *Packet {
	c := *p
	if p.pool != nil {
		if tier, indirect, buf, err := p.pool.acquire(len(p.Payload)); err == nil {
			copy(buf, p.Payload)
			c.Payload = buf
			c.tier = tier
			c.indirect = indirect
			return &c
		}
	}
	c.Payload = append([]byte(nil), p.Payload...)
	c.pool = nil
	return &c
}

// Release returns a pool-backed payload to its tier. It is a no-op for
// packets not allocated via PacketPool.Alloc or cloned from one (plain
// NewPacket construction, used throughout the test suite, owns its
// Payload outright). Callers must not touch Payload after calling
// Release; the engine calls this once a packet's traversal ends in
// Dropped, Success, or Error (spec.md §3: the callback/engine that last
// holds the packet owns freeing it).
func (p *Packet) Release() error {
	if p.pool == nil {
		return nil
	}
	err := p.pool.release(p.tier, p.indirect)
	p.pool = nil
	return err
}
