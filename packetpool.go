package netfab

import "code.hybscloud.com/netfab/bufpool"

// PacketPool sources packet payloads from bufpool's lock-free tiered
// buffer pools instead of plain make([]byte, n), matching the engine's
// non-blocking, GC-off-the-hot-path allocation requirement (spec.md §2's
// "Domain: buffer pool", bufpool's own doc.go). Each tier is a
// bufpool.BoundedPool[[]byte]: unlike the fixed-array MicroBuffer/
// SmallBuffer/... types, a []byte element aliases its backing array
// across Value calls, so checking a buffer out and back in is genuinely
// zero-copy.
type PacketPool struct {
	tiers [bufpool.TierEnd]*bufpool.BoundedPool[[]byte]
}

// NewPacketPool builds a PacketPool with capacityPerTier pre-filled
// buffers in each of the four size tiers.
func NewPacketPool(capacityPerTier int) *PacketPool {
	p := &PacketPool{}
	sizes := [bufpool.TierEnd]int{
		bufpool.TierMicro:  bufpool.BufferSizeMicro,
		bufpool.TierSmall:  bufpool.BufferSizeSmall,
		bufpool.TierMedium: bufpool.BufferSizeMedium,
		bufpool.TierBig:    bufpool.BufferSizeBig,
	}
	for t, size := range sizes {
		pool := bufpool.NewBoundedPool[[]byte](capacityPerTier)
		sz := size
		pool.Fill(func() []byte { return make([]byte, sz) })
		pool.SetNonblock(true)
		p.tiers[t] = pool
	}
	return p
}

// acquire checks out a buffer from the smallest tier that fits size
// bytes, returning the tier and indirect index the caller must hold on
// to in order to release it later.
func (p *PacketPool) acquire(size int) (tier bufpool.BufferTier, indirect int, buf []byte, err error) {
	tier = bufpool.TierBySize(size)
	indirect, err = p.tiers[tier].Get()
	if err != nil {
		return tier, 0, nil, err
	}
	return tier, indirect, p.tiers[tier].Value(indirect)[:size], nil
}

func (p *PacketPool) release(tier bufpool.BufferTier, indirect int) error {
	return p.tiers[tier].Put(indirect)
}

// Alloc returns a Packet whose Payload is checked out of the tier sized
// for size bytes, rather than a freshly allocated slice. Returns
// bufpool's ErrWouldBlock if every buffer in that tier is currently
// checked out (spec.md: a packet never blocks waiting for a buffer; the
// caller drops it on exhaustion instead).
func (p *PacketPool) Alloc(size int, dir Direction, nextIDP IDP) (*Packet, error) {
	tier, indirect, buf, err := p.acquire(size)
	if err != nil {
		return nil, err
	}
	pk := &Packet{Payload: buf, dir: dir, pool: p, tier: tier, indirect: indirect}
	pk.PushNextIDP(nextIDP)
	return pk, nil
}
