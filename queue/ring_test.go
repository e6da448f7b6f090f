package queue_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/netfab/queue"
)

func TestRing_PushPopFIFO(t *testing.T) {
	r := queue.New[int](8)
	for i := range 8 {
		if err := r.Push(i); err != nil {
			t.Fatalf("Push(%d) failed: %v", i, err)
		}
	}
	if err := r.Push(99); err != iox.ErrWouldBlock {
		t.Fatalf("expected ErrWouldBlock on full ring, got %v", err)
	}
	for i := range 8 {
		v, err := r.Pop()
		if err != nil {
			t.Fatalf("Pop() failed: %v", err)
		}
		if v != i {
			t.Errorf("Pop() = %d, want %d (FIFO order)", v, i)
		}
	}
	if _, err := r.Pop(); err != iox.ErrWouldBlock {
		t.Fatalf("expected ErrWouldBlock on empty ring, got %v", err)
	}
}

func TestRing_CapacityRoundsUp(t *testing.T) {
	r := queue.New[int](10)
	if r.Cap() != 16 {
		t.Errorf("expected capacity 16, got %d", r.Cap())
	}
}

func TestRing_ConcurrentProducersSingleConsumer(t *testing.T) {
	const producers = 8
	const perProducer = 1000
	r := queue.New[int](256)

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := range perProducer {
				for r.Push(base+i) == iox.ErrWouldBlock {
					// backpressure; spin until consumer drains
				}
			}
		}(p * perProducer)
	}

	got := make(map[int]bool)
	var mu sync.Mutex
	done := make(chan struct{})
	go func() {
		count := 0
		for count < producers*perProducer {
			v, err := r.Pop()
			if err == iox.ErrWouldBlock {
				continue
			}
			mu.Lock()
			got[v] = true
			mu.Unlock()
			count++
		}
		close(done)
	}()

	wg.Wait()
	<-done

	if len(got) != producers*perProducer {
		t.Errorf("expected %d unique items, got %d", producers*perProducer, len(got))
	}
}

func TestRing_EmptyReportsCorrectly(t *testing.T) {
	r := queue.New[int](4)
	if !r.Empty() {
		t.Fatal("new ring should be empty")
	}
	_ = r.Push(1)
	if r.Empty() {
		t.Fatal("ring with one item should not be empty")
	}
	_, _ = r.Pop()
	if !r.Empty() {
		t.Fatal("drained ring should be empty")
	}
}
