package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Task is a unit of work run once by a single worker.
type Task func()

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Workers   int
	Submitted uint64
	Completed uint64
	Panicked  uint64
	Rejected  uint64
	Running   int
	Queued    int
}

// Pool runs submitted tasks on a fixed set of worker goroutines.
type Pool struct {
	size    int
	tasks   chan Task
	workers []*worker
	logger  Logger
	hooks   Hooks

	// mu guards closed so that no sender writes to tasks after it is closed.
	mu     sync.RWMutex
	closed bool
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	submitted atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	rejected  atomic.Uint64
	running   atomic.Int64
}

// New starts a pool with exactly size workers. It returns ErrInvalidSize,
// without starting anything, when size is not positive.
func New(size int, opts ...Option) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	o := options{
		queueSize: size * DefaultQueueFactor,
		logger:    nopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{
		size:    size,
		tasks:   make(chan Task, o.queueSize),
		workers: make([]*worker, 0, size),
		logger:  o.logger,
		hooks:   o.hooks,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	for id := range size {
		w := newWorker(id, p)
		p.workers = append(p.workers, w)
		p.wg.Go(w.run)
	}

	go func() {
		p.wg.Wait()
		close(p.done)
	}()

	p.logger.Debug("Pool started", "workers", size, "queue_size", o.queueSize)
	return p, nil
}

// MustNew is like New but panics when size is not positive.
func MustNew(size int, opts ...Option) *Pool {
	p, err := New(size, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Submit queues task for execution, blocking while the queue is full.
// It returns ErrPoolClosed once shutdown has begun, including for a call that
// was blocked when shutdown started.
func (p *Pool) Submit(task Task) error {
	return p.submit(context.Background(), task, true)
}

// SubmitContext is like Submit but returns ctx.Err() if ctx ends while the
// call is blocked on a full queue.
func (p *Pool) SubmitContext(ctx context.Context, task Task) error {
	return p.submit(ctx, task, true)
}

// TrySubmit queues task only if a slot is free, and returns ErrQueueFull
// otherwise.
func (p *Pool) TrySubmit(task Task) error {
	return p.submit(context.Background(), task, false)
}

func (p *Pool) submit(ctx context.Context, task Task, block bool) error {
	if task == nil {
		return ErrNilTask
	}

	select {
	case <-p.quit:
		return p.reject()
	default:
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return p.reject()
	}

	if !block {
		select {
		case p.tasks <- task:
			p.accept()
			return nil
		default:
			return ErrQueueFull
		}
	}

	select {
	case p.tasks <- task:
		p.accept()
		return nil
	case <-p.quit:
		return p.reject()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) accept() {
	p.submitted.Add(1)
	p.hooks.submit()
}

func (p *Pool) reject() error {
	p.rejected.Add(1)
	p.hooks.reject()
	return ErrPoolClosed
}

// Shutdown stops accepting tasks and waits until every queued task has run
// and all workers have exited. If ctx ends first it returns an error wrapping
// ErrShutdownTimeout and ctx.Err(); the workers keep draining in the
// background and Done is closed when they finish. Shutdown is safe to call
// more than once and from several goroutines.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		// Wake blocked submitters before taking the write lock they hold
		// the read side of.
		close(p.quit)

		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()

		p.logger.Debug("Pool shutting down", "queued", len(p.tasks))
	})

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// Close is Shutdown without a deadline.
func (p *Pool) Close() error {
	return p.Shutdown(context.Background())
}

// Done is closed once every worker has exited.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.size,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
		Rejected:  p.rejected.Load(),
		Running:   int(p.running.Load()),
		Queued:    len(p.tasks),
	}
}
