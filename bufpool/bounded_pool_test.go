// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bufpool_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/netfab/bufpool"
)

func TestBoundedPool_BasicGetPut(t *testing.T) {
	const capacity = 16
	pool := bufpool.NewBoundedPool[int](capacity)

	counter := 0
	pool.Fill(func() int {
		v := counter * 10
		counter++
		return v
	})

	indices := make([]int, capacity)
	for i := range capacity {
		idx, err := pool.Get()
		if err != nil {
			t.Fatalf("Get() failed at iteration %d: %v", i, err)
		}
		indices[i] = idx
	}

	for _, idx := range indices {
		if err := pool.Put(idx); err != nil {
			t.Fatalf("Put(%d) failed: %v", idx, err)
		}
	}

	for i := range capacity {
		if _, err := pool.Get(); err != nil {
			t.Fatalf("second Get() failed at iteration %d: %v", i, err)
		}
	}
}

func TestBoundedPool_NonblockingEmpty(t *testing.T) {
	const capacity = 4
	pool := bufpool.NewBoundedPool[int](capacity)
	pool.SetNonblock(true)
	pool.Fill(func() int { return 0 })

	for range capacity {
		if _, err := pool.Get(); err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
	}

	if _, err := pool.Get(); err != iox.ErrWouldBlock {
		t.Errorf("expected iox.ErrWouldBlock, got %v", err)
	}
}

func TestBoundedPool_NonblockingFull(t *testing.T) {
	const capacity = 4
	pool := bufpool.NewBoundedPool[int](capacity)
	pool.SetNonblock(true)
	pool.Fill(func() int { return 0 })

	indices := make([]int, capacity)
	for i := range capacity {
		idx, _ := pool.Get()
		indices[i] = idx
	}
	for _, idx := range indices {
		if err := pool.Put(idx); err != nil {
			t.Fatalf("Put(%d) failed: %v", idx, err)
		}
	}
	for _, idx := range indices {
		_ = pool.Put(idx)
	}

	err := pool.Put(indices[0])
	if err != nil && err != iox.ErrWouldBlock {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBoundedPool_CapacityRoundsUpToPowerOfTwo(t *testing.T) {
	pool := bufpool.NewBoundedPool[int](10)
	if pool.Cap() != 16 {
		t.Errorf("expected capacity 16, got %d", pool.Cap())
	}
}

func TestBoundedPool_ConcurrentGetPut(t *testing.T) {
	const capacity = 64
	const producers = 8
	const itemsPerProducer = 500

	pool := bufpool.NewMicroBufferPool(capacity)
	pool.Fill(bufpool.NewMicroBuffer)

	var wg sync.WaitGroup
	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range itemsPerProducer {
				idx, err := pool.Get()
				if err != nil {
					t.Errorf("Get() failed: %v", err)
					return
				}
				if err := pool.Put(idx); err != nil {
					t.Errorf("Put() failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestTierBySize(t *testing.T) {
	cases := []struct {
		size int
		want bufpool.BufferTier
	}{
		{1, bufpool.TierMicro},
		{bufpool.BufferSizeMicro, bufpool.TierMicro},
		{bufpool.BufferSizeMicro + 1, bufpool.TierSmall},
		{bufpool.BufferSizeSmall, bufpool.TierSmall},
		{bufpool.BufferSizeMedium, bufpool.TierMedium},
		{bufpool.BufferSizeBig + 1, bufpool.TierBig},
	}
	for _, tc := range cases {
		if got := bufpool.TierBySize(tc.size); got != tc.want {
			t.Errorf("TierBySize(%d) = %v, want %v", tc.size, got, tc.want)
		}
	}
}
