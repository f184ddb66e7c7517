package fiber

import (
	"sync"
	"testing"
	"time"
)

func TestDoNothingParallel(t *testing.T) {
	var futures []*Future[struct{}]
	for i := 0; i < 20; i++ {
		futures = append(futures, DoParallel(func() (struct{}, error) {
			return struct{}{}, nil
		}))
	}
	for _, f := range futures {
		if err := f.Err(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDoSomethingParallel(t *testing.T) {
	var mu sync.Mutex
	perWorker := make(map[WorkerID]int)

	var futures []*Future[WorkerID]
	for i := 0; i < 64; i++ {
		futures = append(futures, DoParallel(func() (WorkerID, error) {
			id, _ := CurrentWorker()
			mu.Lock()
			perWorker[id]++
			mu.Unlock()
			Sleep(time.Millisecond)
			return id, nil
		}))
	}
	for _, f := range futures {
		if err := f.Err(); err != nil {
			t.Fatal(err)
		}
	}
	if len(perWorker) < 2 {
		t.Errorf("all tasks ran on %d worker(s), expected several", len(perWorker))
	}
}

// Pool fibers run in parallel, so N sleeping tasks must take less than
// N times the sleep duration.
func TestParallelSleepOverlaps(t *testing.T) {
	const n = 4
	const d = 200 * time.Millisecond
	start := time.Now()
	var futures []*Future[struct{}]
	for i := 0; i < n; i++ {
		futures = append(futures, DoParallel(func() (struct{}, error) {
			Sleep(d)
			return struct{}{}, nil
		}))
	}
	for _, f := range futures {
		f.Wait()
	}
	if elapsed := time.Since(start); elapsed >= n*d {
		t.Errorf("n sleeps took %v, expected overlap below %v", elapsed, n*d)
	}
}

func TestPoolPostAfterClosePanics(t *testing.T) {
	p := NewWorkerPool(2)
	done := make(chan struct{})
	p.Submit(func() { close(done) })
	<-done
	p.Close()
	mustPanic(t, "Submit on a closed pool", func() {
		p.Submit(func() {})
	})
}
