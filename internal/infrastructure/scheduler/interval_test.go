package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewInterval("test", 10*time.Millisecond, nil)
	if err := s.Start(context.Background(), func(context.Context, time.Time) error {
		runs.Add(1)
		return errors.New("ignored")
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if got := runs.Load(); got < 3 {
		t.Fatalf("job ran %d times, want at least 3", got)
	}
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Fatal("job kept running after Stop")
	}
}

func TestIntervalStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 1)
	s := NewInterval("test", time.Hour, nil)
	if err := s.Start(ctx, func(context.Context, time.Time) error {
		started <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-started
	cancel()
	s.Stop()
}

func TestIntervalRejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	s := NewInterval("test", 0, nil)
	err := s.Start(context.Background(), func(context.Context, time.Time) error { return nil })
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("err = %v, want ErrInvalidInterval", err)
	}
	s.Stop()
}
