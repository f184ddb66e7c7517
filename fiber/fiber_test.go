package fiber

import (
	"errors"
	"testing"
	"time"
)

func TestExecutesTask(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	called := false
	_, err := Spawn(func() (struct{}, error) {
		called = true
		return struct{}{}, nil
	}, OnWorker(w.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("task was not executed")
	}
}

func TestReturnsValueFromFunction(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	v, err := Spawn(func() (int, error) { return 10, nil }, OnWorker(w.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
	if v != 10 {
		t.Errorf("got %d, want 10", v)
	}
}

func TestSurfacesErrorToFuture(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	boom := errors.New("boom")
	_, err := Spawn(func() (int, error) { return 0, boom }, OnWorker(w.ID())).Get()
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestSurfacesPanicToFuture(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	_, err := Spawn(func() (int, error) { panic("kaboom") }, OnWorker(w.ID())).Get()
	if err == nil {
		t.Fatal("expected an error from a panicking fiber")
	}
}

func TestCallsTasksInOrder(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	var result string
	f1 := Spawn(func() (struct{}, error) {
		result += "hello "
		return struct{}{}, nil
	}, OnWorker(w.ID()))
	f2 := Spawn(func() (struct{}, error) {
		result += "world"
		return struct{}{}, nil
	}, OnWorker(w.ID()))
	f2.Wait()
	f1.Wait()
	if result != "hello world" {
		t.Errorf("got %q, want %q", result, "hello world")
	}
}

func TestYieldsExecution(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	var result string
	// both fibers are spawned from a fiber on the worker itself, so
	// they enter the run queue back to back before either can run
	_, err := Spawn(func() (struct{}, error) {
		f1 := Spawn(func() (struct{}, error) {
			Yield()
			result += "world"
			return struct{}{}, nil
		})
		f2 := Spawn(func() (struct{}, error) {
			result += "hello "
			return struct{}{}, nil
		})
		f2.Wait()
		f1.Wait()
		return struct{}{}, nil
	}, OnWorker(w.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
	if result != "hello world" {
		t.Errorf("got %q, want %q", result, "hello world")
	}
}

func TestReschedulesYieldedTask(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	count := 0
	f := Spawn(func() (struct{}, error) {
		for count < 10 {
			Yield()
			count++
		}
		return struct{}{}, nil
	}, OnWorker(w.ID()))
	f.Wait()
	if count != 10 {
		t.Errorf("got %d reschedules, want 10", count)
	}
}

func TestMigrationIdentity(t *testing.T) {
	w1 := NewWorker("")
	defer w1.Close()
	w2 := NewWorker("")
	defer w2.Close()

	// direct spawn from outside any fiber
	id, err := Spawn(func() (WorkerID, error) {
		id, ok := CurrentWorker()
		if !ok {
			return 0, errors.New("no current worker")
		}
		return id, nil
	}, OnWorker(w2.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
	if id != w2.ID() {
		t.Errorf("fiber ran on worker %d, want %d", id, w2.ID())
	}

	// spawn from a fiber on w1 targeting w2 goes through the
	// dispatcher's migration handshake
	id, err = Spawn(func() (WorkerID, error) {
		return Spawn(func() (WorkerID, error) {
			id, _ := CurrentWorker()
			return id, nil
		}, OnWorker(w2.ID())).Get()
	}, OnWorker(w1.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
	if id != w2.ID() {
		t.Errorf("migrated fiber ran on worker %d, want %d", id, w2.ID())
	}
}

func TestMigrateKeepsFiberState(t *testing.T) {
	w1 := NewWorker("migrate-src")
	defer w1.Close()
	w2 := NewWorker("migrate-dst")
	defer w2.Close()

	local := NewLocal[string]()
	_, err := Spawn(func() (struct{}, error) {
		SetFiberName("traveler")
		local.Set("payload")
		if got := GetThreadName(); got != "migrate-src" {
			t.Errorf("before migration: thread name %q, want %q", got, "migrate-src")
		}
		Migrate(w2.ID())
		if got := GetThreadName(); got != "migrate-dst" {
			t.Errorf("after migration: thread name %q, want %q", got, "migrate-dst")
		}
		if got := GetFiberName(); got != "traveler" {
			t.Errorf("after migration: fiber name %q, want %q", got, "traveler")
		}
		if v, ok := local.Get(); !ok || v != "payload" {
			t.Errorf("after migration: fiber-local = %q, %v", v, ok)
		}
		if id, _ := CurrentWorker(); id != w2.ID() {
			t.Errorf("after migration: on worker %d, want %d", id, w2.ID())
		}
		return struct{}{}, nil
	}, OnWorker(w1.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
}

func TestMigrateToSameWorkerIsNoop(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	_, err := Spawn(func() (struct{}, error) {
		id, _ := CurrentWorker()
		Migrate(id)
		if after, _ := CurrentWorker(); after != id {
			t.Errorf("worker changed from %d to %d", id, after)
		}
		return struct{}{}, nil
	}, OnWorker(w.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
}

func TestScheduleAtPastDeadlineRunsPromptly(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	start := time.Now()
	_, err := ScheduleAt(func() (struct{}, error) {
		return struct{}{}, nil
	}, start.Add(-time.Second), OnWorker(w.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("past deadline took %v", elapsed)
	}
}

func TestScheduleAtWaitsForDeadline(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	start := time.Now()
	const delay = 50 * time.Millisecond
	_, err := ScheduleAt(func() (struct{}, error) {
		return struct{}{}, nil
	}, start.Add(delay), OnWorker(w.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("ran after %v, want at least %v", elapsed, delay)
	}
}

func TestWaitForTimeout(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	gate := NewPromise[struct{}]()
	f := Spawn(func() (struct{}, error) {
		gate.Future().Wait()
		return struct{}{}, nil
	}, OnWorker(w.ID()))
	if st := f.WaitFor(0); st.String() != "timeout" {
		t.Errorf("got %v, want timeout", st)
	}
	gate.Set(struct{}{})
	f.Wait()
	if st := f.WaitFor(0); st.String() != "ready" {
		t.Errorf("got %v, want ready", st)
	}
}

func mustPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", what)
		}
	}()
	fn()
}

func TestOneShotNames(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	_, err := Spawn(func() (struct{}, error) {
		SetFiberName("once")
		mustPanic(t, "second SetFiberName", func() { SetFiberName("twice") })
		SetThreadName("worker-once")
		mustPanic(t, "second SetThreadName", func() { SetThreadName("worker-twice") })
		return struct{}{}, nil
	}, OnWorker(w.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
}

func TestGeneratedNames(t *testing.T) {
	w := NewWorker("")
	defer w.Close()
	name, err := Spawn(func() (string, error) {
		return GetFiberName(), nil
	}, OnWorker(w.ID())).Get()
	if err != nil {
		t.Fatal(err)
	}
	if name == "" {
		t.Error("generated fiber name is empty")
	}
}

func TestSpawnUnknownWorkerPanics(t *testing.T) {
	mustPanic(t, "spawn on unknown worker", func() {
		Spawn(func() (struct{}, error) { return struct{}{}, nil }, OnWorker(99999))
	})
}
