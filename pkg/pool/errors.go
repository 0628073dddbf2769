package pool

import "errors"

var (
	// ErrInvalidSize is returned by New when the worker count is not positive.
	ErrInvalidSize = errors.New("pool size must be greater than 0")

	// ErrPoolClosed is returned when a task is submitted after shutdown has begun.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrQueueFull is returned by TrySubmit when no queue slot is free.
	ErrQueueFull = errors.New("pool queue is full")

	// ErrNilTask is returned when a nil task is submitted.
	ErrNilTask = errors.New("cannot submit nil task")

	// ErrShutdownTimeout is returned by Shutdown when its context ends before
	// the workers have drained the queue.
	ErrShutdownTimeout = errors.New("pool shutdown timed out")
)
