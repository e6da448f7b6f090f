// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bufpool_test

import (
	"testing"
	"unsafe"

	"code.hybscloud.com/netfab/bufpool"
)

func TestAlignedMem(t *testing.T) {
	mem := bufpool.AlignedMem(128, 64)
	if len(mem) != 128 {
		t.Fatalf("expected len 128, got %d", len(mem))
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if addr%64 != 0 {
		t.Errorf("expected 64-byte aligned address, got %#x", addr)
	}
}

func TestCacheLineAlignedMem(t *testing.T) {
	mem := bufpool.CacheLineAlignedMem(256)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if addr%uintptr(bufpool.CacheLineSize) != 0 {
		t.Errorf("expected cache-line aligned address, got %#x", addr)
	}
}

func TestIoVecFromSmallBuffers(t *testing.T) {
	buffers := make([]bufpool.SmallBuffer, 4)
	vec := bufpool.IoVecFromSmallBuffers(buffers)
	if len(vec) != 4 {
		t.Fatalf("expected 4 iovecs, got %d", len(vec))
	}
	for _, v := range vec {
		if v.Len != bufpool.BufferSizeSmall {
			t.Errorf("expected len %d, got %d", bufpool.BufferSizeSmall, v.Len)
		}
	}
}

func TestIoVecAddrLen(t *testing.T) {
	if addr, n := bufpool.IoVecAddrLen(nil); addr != 0 || n != 0 {
		t.Errorf("expected (0, 0) for empty slice, got (%d, %d)", addr, n)
	}
	vec := bufpool.IoVecFromSmallBuffers(make([]bufpool.SmallBuffer, 2))
	addr, n := bufpool.IoVecAddrLen(vec)
	if addr == 0 || n != 2 {
		t.Errorf("expected non-zero addr and n=2, got (%d, %d)", addr, n)
	}
}
