// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bufpool

import (
	"unsafe"
)

// IoVec represents a scatter/gather I/O descriptor compatible with the
// standard Linux struct iovec. The link-layer source functional block uses
// it to hand batched egress frames to the OS transmit path in a single
// vectored writev call instead of one syscall per packet.
//
// Memory layout matches the C struct iovec exactly:
//
//	struct iovec {
//	    void  *iov_base;
//	    size_t iov_len;
//	};
type IoVec struct {
	Base *byte
	Len  uint64
}

// IoVecFromBytesSlice converts a slice of byte slices to an IoVec slice
// suitable for a writev-style syscall.
func IoVecFromBytesSlice(iov [][]byte) []IoVec {
	if len(iov) == 0 {
		return nil
	}
	vec := make([]IoVec, len(iov))
	for i := range iov {
		vec[i] = IoVec{Base: unsafe.SliceData(iov[i]), Len: uint64(len(iov[i]))}
	}
	return vec
}

// IoVecAddrLen extracts the raw pointer and length from an IoVec slice
// for direct syscall consumption.
//
// Returns (0, 0) for empty or nil slices.
func IoVecAddrLen(vec []IoVec) (addr uintptr, n int) {
	if len(vec) == 0 {
		return 0, 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(vec))), len(vec)
}

// IoVecFromSmallBuffers converts a slice of SmallBuffer to an IoVec slice.
// The returned IoVec elements point directly at the buffer memory without copying.
func IoVecFromSmallBuffers(buffers []SmallBuffer) []IoVec {
	if len(buffers) == 0 {
		return nil
	}
	vec := make([]IoVec, len(buffers))
	for i := range buffers {
		vec[i] = IoVec{Base: (*byte)(unsafe.Pointer(&buffers[i])), Len: BufferSizeSmall}
	}
	return vec
}

// IoVecFromMediumBuffers converts a slice of MediumBuffer to an IoVec slice.
func IoVecFromMediumBuffers(buffers []MediumBuffer) []IoVec {
	if len(buffers) == 0 {
		return nil
	}
	vec := make([]IoVec, len(buffers))
	for i := range buffers {
		vec[i] = IoVec{Base: (*byte)(unsafe.Pointer(&buffers[i])), Len: BufferSizeMedium}
	}
	return vec
}
