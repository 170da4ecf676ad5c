package history

import (
	"sync"
	"testing"
)

func TestQueue_PushDrain(t *testing.T) {
	q := NewQueue[int](10, 100)

	for i := 0; i < 5; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}

	if q.Len() != 5 {
		t.Errorf("Len() = %d, want 5", q.Len())
	}

	got := q.DrainTo(0)
	for i, v := range got {
		if v != i {
			t.Errorf("got[%d] = %d, want %d", i, v, i)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.DrainTo(0) != nil {
		t.Error("DrainTo on empty queue should return nil")
	}
}

func TestQueue_DrainToMax(t *testing.T) {
	q := NewQueue[int](10, 100)
	for i := 0; i < 8; i++ {
		q.Push(i)
	}

	first := q.DrainTo(3)
	if len(first) != 3 || first[0] != 0 || first[2] != 2 {
		t.Errorf("DrainTo(3) = %v, want [0 1 2]", first)
	}
	rest := q.DrainTo(100)
	if len(rest) != 5 || rest[0] != 3 || rest[4] != 7 {
		t.Errorf("DrainTo(100) = %v, want [3 4 5 6 7]", rest)
	}
}

func TestQueue_GrowAt70Percent(t *testing.T) {
	q := NewQueue[int](10, 100)

	// 70% of 10
	for i := 0; i < 7; i++ {
		q.Push(i)
	}

	stats := q.Stats()
	if stats.Capacity != 20 {
		t.Errorf("Capacity = %d, want 20", stats.Capacity)
	}
	if stats.Resizes != 1 {
		t.Errorf("Resizes = %d, want 1", stats.Resizes)
	}

	got := q.DrainTo(0)
	for i := 0; i < 7; i++ {
		if got[i] != i {
			t.Errorf("got[%d] = %d, want %d", i, got[i], i)
		}
	}
}

func TestQueue_GrowPreservesWrappedOrder(t *testing.T) {
	q := NewQueue[int](10, 100)

	// Move head forward so the ring wraps
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	q.DrainTo(5)

	for i := 0; i < 12; i++ {
		q.Push(100 + i)
	}

	got := q.DrainTo(0)
	if len(got) != 12 {
		t.Fatalf("len = %d, want 12", len(got))
	}
	for i, v := range got {
		if v != 100+i {
			t.Errorf("got[%d] = %d, want %d", i, v, 100+i)
		}
	}
}

func TestQueue_DropsAtMaxCapacity(t *testing.T) {
	q := NewQueue[int](2, 4)

	accepted := 0
	for i := 0; i < 10; i++ {
		if q.Push(i) {
			accepted++
		}
	}

	stats := q.Stats()
	if stats.Capacity != 4 {
		t.Errorf("Capacity = %d, want 4", stats.Capacity)
	}
	if accepted != 4 {
		t.Errorf("accepted = %d, want 4", accepted)
	}
	if stats.Dropped != 6 {
		t.Errorf("Dropped = %d, want 6", stats.Dropped)
	}

	got := q.DrainTo(0)
	for i, v := range got {
		if v != i {
			t.Errorf("got[%d] = %d, want %d (oldest items are kept)", i, v, i)
		}
	}
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue[int](4, 4)
	q.Push(1)
	q.Close()

	if q.Push(2) {
		t.Error("Push after Close should return false")
	}
	if got := q.DrainTo(0); len(got) != 1 || got[0] != 1 {
		t.Errorf("DrainTo after Close = %v, want [1]", got)
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := NewQueue[int](16, 1<<16)

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				q.Push(i)
			}
		}()
	}

	drained := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		drained += len(q.DrainTo(64))
		select {
		case <-done:
			drained += len(q.DrainTo(0))
			stats := q.Stats()
			if drained != 4000 || stats.Pushed != 4000 || stats.Drained != 4000 {
				t.Errorf("drained = %d, stats = %+v, want 4000", drained, stats)
			}
			return
		default:
		}
	}
}
