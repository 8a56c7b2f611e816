package pad

import (
	"sync"
	"testing"
)

func TestQueueFIFOAndDrop(t *testing.T) {
	var q Queue
	for i := 0; i < QueueCapacity; i++ {
		if !q.Push(Event{X: i}) {
			t.Fatalf("push %d refused", i)
		}
	}
	if q.Push(Event{X: -1}) {
		t.Fatalf("push beyond capacity accepted")
	}
	for i := 0; i < QueueCapacity; i++ {
		e, ok := q.Pop()
		if !ok || e.X != i {
			t.Fatalf("pop %d = %+v, %v", i, e, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("pop from empty queue")
	}
}

func TestQueueConcurrentDelivery(t *testing.T) {
	var q Queue
	const n = 10000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if q.Push(Event{X: i}) {
				i++
			}
		}
	}()
	for want := 0; want < n; {
		e, ok := q.Pop()
		if !ok {
			continue
		}
		if e.X != want {
			t.Fatalf("got %d want %d", e.X, want)
		}
		want++
	}
	wg.Wait()
}
