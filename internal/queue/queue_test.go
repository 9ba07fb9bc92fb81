package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueRunsTasksInSubmissionOrder(t *testing.T) {
	t.Parallel()

	q := New(0)
	q.Start()
	defer q.Close()

	var (
		mu    sync.Mutex
		order []int
	)
	futures := make([]*Future[int], 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		futures = append(futures, Enqueue(context.Background(), q, func(context.Context) (int, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return i * 10, nil
		}))
	}

	for i, f := range futures {
		v, err := f.Wait(context.Background())
		if err != nil {
			t.Fatalf("task %d: %v", i, err)
		}
		if v != i*10 {
			t.Fatalf("task %d returned %d", i, v)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("tasks ran out of order: %v", order)
		}
	}
}

func TestQueueNeverOverlapsTasks(t *testing.T) {
	t.Parallel()

	q := New(0)
	q.Start()
	defer q.Close()

	var running, maxRunning int32
	futures := make([]*Future[struct{}], 0, 8)
	for i := 0; i < 8; i++ {
		futures = append(futures, Enqueue(context.Background(), q, func(context.Context) (struct{}, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				m := atomic.LoadInt32(&maxRunning)
				if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return struct{}{}, nil
		}))
	}
	for _, f := range futures {
		if _, err := f.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}

	if got := atomic.LoadInt32(&maxRunning); got != 1 {
		t.Fatalf("expected a single task in flight, saw %d", got)
	}
}

func TestQueueSpacesTaskStarts(t *testing.T) {
	t.Parallel()

	const delay = 40 * time.Millisecond
	q := New(delay)
	q.Start()
	defer q.Close()

	var (
		mu     sync.Mutex
		starts []time.Time
	)
	futures := make([]*Future[struct{}], 0, 3)
	for i := 0; i < 3; i++ {
		futures = append(futures, Enqueue(context.Background(), q, func(context.Context) (struct{}, error) {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			return struct{}{}, nil
		}))
	}
	for _, f := range futures {
		if _, err := f.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < delay {
			t.Fatalf("task %d started %v after the previous one, want >= %v", i, gap, delay)
		}
	}
}

func TestQueueSpacingCountsFromPreviousStart(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	var (
		mu     sync.Mutex
		now    = base
		sleeps []time.Duration
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	sleep := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		sleeps = append(sleeps, d)
		now = now.Add(d)
		return nil
	}

	q := New(2*time.Second, WithClock(clock, sleep))
	q.Start()
	defer q.Close()

	// The first task takes 500ms of fake time, so the second waits 1.5s.
	first := Enqueue(context.Background(), q, func(context.Context) (int, error) {
		mu.Lock()
		now = now.Add(500 * time.Millisecond)
		mu.Unlock()
		return 1, nil
	})
	second := Enqueue(context.Background(), q, func(context.Context) (int, error) { return 2, nil })

	if _, err := first.Wait(context.Background()); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := second.Wait(context.Background()); err != nil {
		t.Fatalf("second: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sleeps) != 1 || sleeps[0] != 1500*time.Millisecond {
		t.Fatalf("unexpected spacing waits: %v", sleeps)
	}
}

func TestQueueIsolatesFailures(t *testing.T) {
	t.Parallel()

	q := New(0)
	q.Start()
	defer q.Close()

	boom := errors.New("boom")
	failed := Enqueue(context.Background(), q, func(context.Context) (string, error) {
		return "", boom
	})
	panicked := Enqueue(context.Background(), q, func(context.Context) (string, error) {
		panic("kaboom")
	})
	ok := Enqueue(context.Background(), q, func(context.Context) (string, error) {
		return "fine", nil
	})

	if _, err := failed.Wait(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected task error, got %v", err)
	}
	if _, err := panicked.Wait(context.Background()); err == nil {
		t.Fatal("expected panic to surface as an error")
	}
	v, err := ok.Wait(context.Background())
	if err != nil || v != "fine" {
		t.Fatalf("later task affected by earlier failures: %q, %v", v, err)
	}
}

func TestQueueSkipsCancelledTasks(t *testing.T) {
	t.Parallel()

	q := New(0)
	release := make(chan struct{})
	blocker := Enqueue(context.Background(), q, func(context.Context) (int, error) {
		<-release
		return 0, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	skipped := Enqueue(ctx, q, func(context.Context) (int, error) {
		ran.Store(true)
		return 1, nil
	})
	cancel()

	q.Start()
	defer q.Close()
	close(release)

	if _, err := blocker.Wait(context.Background()); err != nil {
		t.Fatalf("blocker: %v", err)
	}
	<-skipped.Done()
	if _, err := skipped.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran.Load() {
		t.Fatal("cancelled task must not run")
	}
}

func TestQueueCloseRejectsPendingAndNewTasks(t *testing.T) {
	t.Parallel()

	q := New(time.Hour)
	pending := Enqueue(context.Background(), q, func(context.Context) (int, error) { return 1, nil })
	q.Close()

	if _, err := pending.Wait(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("pending task: expected ErrClosed, got %v", err)
	}
	if _, err := Do(context.Background(), q, func(context.Context) (int, error) { return 2, nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("new task: expected ErrClosed, got %v", err)
	}
	q.Close()
}
