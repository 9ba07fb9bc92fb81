// Package queue runs outbound tasks one at a time, in submission order, with a
// minimum spacing between task starts.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned for tasks that were pending when the queue closed.
var ErrClosed = errors.New("request queue closed")

// Option customizes a Queue.
type Option func(*Queue)

// WithLogger attaches a logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithClock replaces time.Now and the spacing wait, for tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(q *Queue) {
		q.now = now
		q.sleep = sleep
	}
}

type job struct {
	ctx context.Context
	run func(ctx context.Context)
	// fail resolves the job without running it.
	fail func(err error)
}

// Queue is a FIFO scheduler with a single task in flight.
type Queue struct {
	delay  time.Duration
	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	pending []job
	closed  bool
	wake    chan struct{}

	// lastStart is only touched by the loop goroutine.
	lastStart time.Time

	startOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New builds a queue that keeps at least delay between task starts.
func New(delay time.Duration, opts ...Option) *Queue {
	q := &Queue{
		delay: delay,
		now:   time.Now,
		sleep: sleepContext,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the processing loop. Calling it more than once is a no-op.
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		go q.loop()
	})
}

// Close stops the loop after the running task and rejects pending tasks.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	rest := q.pending
	q.pending = nil
	q.mu.Unlock()

	close(q.stop)
	for _, j := range rest {
		j.fail(ErrClosed)
	}

	// A queue that never started has no loop to wait for.
	q.startOnce.Do(func() { close(q.done) })
	<-q.done
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) push(j job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, j)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *Queue) pop() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return job{}, false
	}
	j := q.pending[0]
	q.pending[0] = job{}
	q.pending = q.pending[1:]
	return j, true
}

func (q *Queue) loop() {
	defer close(q.done)

	for {
		j, ok := q.pop()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-q.stop:
				return
			}
		}

		if err := j.ctx.Err(); err != nil {
			j.fail(err)
			continue
		}

		if err := q.waitForSlot(j.ctx); err != nil {
			j.fail(err)
			if errors.Is(err, ErrClosed) {
				return
			}
			continue
		}

		q.lastStart = q.now()
		j.run(j.ctx)
	}
}

// waitForSlot blocks until delay has elapsed since the previous task started.
func (q *Queue) waitForSlot(ctx context.Context) error {
	if q.lastStart.IsZero() {
		return nil
	}
	wait := q.delay - q.now().Sub(q.lastStart)
	if wait <= 0 {
		return nil
	}
	if q.logger != nil {
		q.logger.Debug("request queue spacing", "wait", wait)
	}

	stopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-q.stop:
			cancel()
		case <-stopCtx.Done():
		}
	}()

	if err := q.sleep(stopCtx, wait); err != nil {
		select {
		case <-q.stop:
			return ErrClosed
		default:
		}
		return err
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Future is the eventual result of an enqueued task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T, err error) {
	f.value = v
	f.err = err
	close(f.done)
}

// Done is closed once the task has finished or was rejected.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task resolves or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Enqueue appends task to q and returns its future. A task error or panic
// only resolves its own future.
func Enqueue[T any](ctx context.Context, q *Queue, task func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()

	j := job{
		ctx: ctx,
		run: func(ctx context.Context) {
			var (
				v   T
				err error
			)
			func() {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("queued task panicked: %v", r)
					}
				}()
				v, err = task(ctx)
			}()
			f.resolve(v, err)
		},
		fail: func(err error) {
			var zero T
			f.resolve(zero, err)
		},
	}

	if err := q.push(j); err != nil {
		j.fail(err)
	}
	return f
}

// Do enqueues task and waits for its result.
func Do[T any](ctx context.Context, q *Queue, task func(ctx context.Context) (T, error)) (T, error) {
	return Enqueue(ctx, q, task).Wait(ctx)
}
