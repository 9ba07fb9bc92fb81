// Package scheduler runs housekeeping jobs on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrInvalidInterval is returned for a non-positive interval.
var ErrInvalidInterval = errors.New("scheduler interval must be positive")

// Interval runs one job immediately and then every interval until stopped.
type Interval struct {
	name     string
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewInterval builds a scheduler; name only labels log lines.
func NewInterval(name string, interval time.Duration, logger *slog.Logger) *Interval {
	return &Interval{name: name, interval: interval, logger: logger}
}

// Start begins running job. A second Start while running is a no-op.
func (s *Interval) Start(ctx context.Context, job func(ctx context.Context, now time.Time) error) error {
	if job == nil {
		return nil
	}
	if s.interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.run(ctx, job, time.Now())
		for {
			select {
			case t := <-ticker.C:
				s.run(ctx, job, t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()
	return nil
}

// Stop halts the loop and waits for a running job to return.
func (s *Interval) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *Interval) run(ctx context.Context, job func(context.Context, time.Time) error, now time.Time) {
	if err := job(ctx, now); err != nil && s.logger != nil {
		s.logger.Warn("scheduled job failed", "job", s.name, "error", err)
	}
}
