// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bufpool

import (
	"unsafe"

	"code.hybscloud.com/netfab/bufpool/internal"
)

// AlignedMem returns a byte slice with the specified size
// and starting address aligned to the memory page size.
//
// This is useful for DMA-style ingress buffers handed to an AF_PACKET ring
// or to the OS transmit path.
//
// The returned slice shares underlying memory with a larger allocation;
// do not assume len(result) == cap(result).
func AlignedMem(size int, pageSize uintptr) []byte {
	p := make([]byte, uintptr(size)+pageSize-1)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+pageSize-1)/pageSize)*pageSize - uintptr(base)
	return unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
}

// AlignedMemBlocks returns n page-aligned byte slices, each of length pageSize.
//
// All returned slices share a single contiguous underlying allocation,
// which is more memory-efficient than calling AlignedMem n times.
//
// Panics if n < 1.
func AlignedMemBlocks(n int, pageSize uintptr) (blocks [][]byte) {
	if n < 1 {
		panic("bad block num")
	}
	blocks = make([][]byte, n)
	p := make([]byte, int(pageSize)*(n+1))
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+pageSize-1)/pageSize)*pageSize - uintptr(base)
	for i := range n {
		blocks[i] = unsafe.Slice((*byte)(unsafe.Add(base, offset+uintptr(i)*pageSize)), pageSize)
	}
	return
}

// AlignedMemBlock returns a single page-aligned block using the system page size.
func AlignedMemBlock() []byte {
	return AlignedMemBlocks(1, PageSize)[0]
}

// CacheLineSize is the CPU L1 cache line size for the current architecture.
// CacheLineAlignedMem aligns to it and BoundedPool uses it to spread
// adjacent slots across cache lines; per-worker port state and stats
// counters are not padded to it.
const CacheLineSize = internal.CacheLineSize

// CacheLineAlignedMem returns a byte slice with the specified size
// and starting address aligned to the CPU cache line size.
func CacheLineAlignedMem(size int) []byte {
	align := uintptr(CacheLineSize)
	p := make([]byte, uintptr(size)+align-1)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)
	return unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
}

// Buffer size tiers sized for packet payloads rather than the bulk-transfer
// tiers of a general I/O buffer library: a packet engine never needs
// megabyte-scale buffers on the hot path.
const (
	BufferSizeMicro  = 1 << 9  // 512 B - control-area cells, small frames
	BufferSizeSmall  = 1 << 11 // 2 KiB - typical Ethernet frames
	BufferSizeMedium = 1 << 13 // 8 KiB - jumbo frames, reassembly
	BufferSizeBig    = 1 << 15 // 32 KiB - tee/clone scratch, vectored batches
)

// BufferTier represents a buffer tier index in the 4-tier packet system.
type BufferTier int

const (
	TierMicro BufferTier = iota
	TierSmall
	TierMedium
	TierBig
	TierEnd // Sentinel marking end of tiers
)

var bufferSizes = [TierEnd]int{
	TierMicro:  BufferSizeMicro,
	TierSmall:  BufferSizeSmall,
	TierMedium: BufferSizeMedium,
	TierBig:    BufferSizeBig,
}

// TierBySize returns the smallest buffer tier that can hold 'size' bytes.
// Returns TierBig for sizes larger than BufferSizeBig.
func TierBySize(size int) BufferTier {
	switch {
	case size <= BufferSizeMicro:
		return TierMicro
	case size <= BufferSizeSmall:
		return TierSmall
	case size <= BufferSizeMedium:
		return TierMedium
	default:
		return TierBig
	}
}

// Size returns the buffer size for this tier.
func (t BufferTier) Size() int {
	if t < 0 || t >= TierEnd {
		return BufferSizeBig
	}
	return bufferSizes[t]
}

// BufferSizeFor returns the smallest buffer size that can hold 'size' bytes.
func BufferSizeFor(size int) int {
	return TierBySize(size).Size()
}

// BufferType is a type constraint for tiered packet buffer types.
type BufferType interface {
	MicroBuffer | SmallBuffer | MediumBuffer | BigBuffer
}

type (
	// MicroBuffer is a 512-byte buffer for control-area cells and small frames.
	MicroBuffer [BufferSizeMicro]byte

	// SmallBuffer is a 2 KiB buffer for typical Ethernet frames.
	SmallBuffer [BufferSizeSmall]byte

	// MediumBuffer is an 8 KiB buffer for jumbo frames and reassembly.
	MediumBuffer [BufferSizeMedium]byte

	// BigBuffer is a 32 KiB buffer for tee/clone scratch and vectored batches.
	BigBuffer [BufferSizeBig]byte
)

// NewMicroBuffer returns a zero-initialized MicroBuffer.
func NewMicroBuffer() MicroBuffer { return MicroBuffer{} }

// NewSmallBuffer returns a zero-initialized SmallBuffer.
func NewSmallBuffer() SmallBuffer { return SmallBuffer{} }

// NewMediumBuffer returns a zero-initialized MediumBuffer.
func NewMediumBuffer() MediumBuffer { return MediumBuffer{} }

// NewBigBuffer returns a zero-initialized BigBuffer.
func NewBigBuffer() BigBuffer { return BigBuffer{} }

// Reset methods satisfy the Pool item contract. Buffer contents are not
// zeroed; callers must clear sensitive data explicitly before release.
func (b MicroBuffer) Reset()  {}
func (b SmallBuffer) Reset()  {}
func (b MediumBuffer) Reset() {}
func (b BigBuffer) Reset()    {}

// SmallArrayFromSlice returns a SmallBuffer by copying from the slice at the given offset.
//
// The caller must ensure offset+BufferSizeSmall <= len(s).
func SmallArrayFromSlice(s []byte, offset int64) SmallBuffer {
	ptr := unsafe.Add(unsafe.Pointer(unsafe.SliceData(s)), offset)
	return *(*[BufferSizeSmall]byte)(ptr)
}

// MediumArrayFromSlice returns a MediumBuffer by copying from the slice at the given offset.
func MediumArrayFromSlice(s []byte, offset int64) MediumBuffer {
	ptr := unsafe.Add(unsafe.Pointer(unsafe.SliceData(s)), offset)
	return *(*[BufferSizeMedium]byte)(ptr)
}

// NewBuffers creates a Buffers slice containing n byte slices, each of length size.
//
// Returns an empty Buffers if n < 1.
func NewBuffers(n int, size int) Buffers {
	if n < 1 {
		return Buffers{}
	}
	ret := make(Buffers, n)
	for i := range n {
		if size > 0 {
			ret[i] = make([]byte, size)
		} else {
			ret[i] = []byte{}
		}
	}
	return ret
}
