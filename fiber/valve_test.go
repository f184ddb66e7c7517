package fiber

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// Three submissions: S1's first phase blocks on a gate, S2's sleeps,
// S3's returns immediately. Commit order must still be S1, S2, S3 and
// each commit observes the counter its predecessor left behind.
func TestSerialValveTriple(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	valve := NewSerialValve()
	defer valve.Close()

	var counter atomic.Uint32
	gate := NewPromise[struct{}]()
	started1 := NewPromise[struct{}]()
	started2 := NewPromise[struct{}]()
	started3 := NewPromise[struct{}]()

	submit := func(f1, f2 func() error) *Future[struct{}] {
		return Spawn(func() (struct{}, error) {
			return struct{}{}, valve.DoSerial(f1, f2)
		}, OnWorker(w.ID()))
	}

	p1 := submit(
		func() error {
			started1.Set(struct{}{})
			gate.Future().Wait()
			return nil
		},
		func() error {
			if got := counter.Load(); got != 0 {
				t.Errorf("first commit observed counter %d, want 0", got)
			}
			counter.Add(1)
			return nil
		})
	started1.Future().Wait()

	p2 := submit(
		func() error {
			started2.Set(struct{}{})
			Sleep(100 * time.Millisecond)
			return nil
		},
		func() error {
			if got := counter.Load(); got != 1 {
				t.Errorf("second commit observed counter %d, want 1", got)
			}
			counter.Add(1)
			return nil
		})
	started2.Future().Wait()

	p3 := submit(
		func() error {
			started3.Set(struct{}{})
			return nil
		},
		func() error {
			if got := counter.Load(); got != 2 {
				t.Errorf("third commit observed counter %d, want 2", got)
			}
			counter.Add(1)
			return nil
		})
	started3.Future().Wait()
	time.Sleep(10 * time.Millisecond)

	if st := p1.WaitFor(0); st.String() != "timeout" {
		t.Errorf("p1 finished before the gate opened: %v", st)
	}
	if st := p3.WaitFor(0); st.String() != "timeout" {
		t.Errorf("p3 committed before its turn: %v", st)
	}

	gate.Set(struct{}{})
	p3.Wait()
	p2.Wait()
	p1.Wait()
	if got := counter.Load(); got != 3 {
		t.Errorf("counter = %d, want 3", got)
	}
}

// Same shape, but submissions come from pool threads.
func TestSerialValveAcrossThreads(t *testing.T) {
	valve := NewSerialValve()
	defer valve.Close()

	var counter atomic.Uint32
	gate := NewPromise[struct{}]()
	started1 := NewPromise[struct{}]()

	p1 := DoParallel(func() (struct{}, error) {
		return struct{}{}, valve.DoSerial(
			func() error {
				started1.Set(struct{}{})
				gate.Future().Wait()
				return nil
			},
			func() error {
				if got := counter.Load(); got != 0 {
					t.Errorf("first commit observed %d", got)
				}
				counter.Add(1)
				return nil
			})
	})
	started1.Future().Wait()

	p2 := DoParallel(func() (struct{}, error) {
		return struct{}{}, valve.DoSerial(
			func() error { return nil },
			func() error {
				if got := counter.Load(); got != 1 {
					t.Errorf("second commit observed %d", got)
				}
				counter.Add(1)
				return nil
			})
	})
	time.Sleep(10 * time.Millisecond)
	gate.Set(struct{}{})
	p2.Wait()
	p1.Wait()
	if got := counter.Load(); got != 2 {
		t.Errorf("counter = %d, want 2", got)
	}
}

func TestSerialValveFirstPhaseErrorSkipsCommit(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	valve := NewSerialValve()
	defer valve.Close()

	boom := errors.New("phase one failed")
	committed := false
	_, err := Spawn(func() (struct{}, error) {
		return struct{}{}, valve.DoSerial(
			func() error { return boom },
			func() error { committed = true; return nil })
	}, OnWorker(w.ID())).Get()
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
	if committed {
		t.Error("commit ran although the first phase failed")
	}

	// downstream work still proceeds
	_, err = Spawn(func() (struct{}, error) {
		return struct{}{}, valve.DoSerial(
			func() error { return nil },
			func() error { return nil })
	}, OnWorker(w.ID())).Get()
	if err != nil {
		t.Errorf("submission after failed phase: %v", err)
	}
}

func TestSerialValveSubmitAfterClosePanics(t *testing.T) {
	valve := NewSerialValve()
	valve.Close()
	mustPanic(t, "DoSerial on a shut valve", func() {
		_ = valve.DoSerial(
			func() error { return nil },
			func() error { return nil })
	})
}
