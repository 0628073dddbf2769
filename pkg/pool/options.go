package pool

import "time"

// DefaultQueueFactor sets the default queue capacity as a multiple of the
// worker count.
const DefaultQueueFactor = 16

// Logger is the subset of a structured logger the pool writes to.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Hooks let callers observe task lifecycle events. Hooks run synchronously on
// the submitting or executing goroutine and must not block. Nil hooks are
// skipped. A panic in OnStart or OnFinish is logged and recovered. OnFinish
// reports panicked for tasks that panic or exit their goroutine.
type Hooks struct {
	OnSubmit func()
	OnReject func()
	OnStart  func(workerID int)
	OnFinish func(workerID int, elapsed time.Duration, panicked bool)
}

func (h Hooks) submit() {
	if h.OnSubmit != nil {
		h.OnSubmit()
	}
}

func (h Hooks) reject() {
	if h.OnReject != nil {
		h.OnReject()
	}
}

func (h Hooks) start(workerID int) {
	if h.OnStart != nil {
		h.OnStart(workerID)
	}
}

func (h Hooks) finish(workerID int, elapsed time.Duration, panicked bool) {
	if h.OnFinish != nil {
		h.OnFinish(workerID, elapsed, panicked)
	}
}

type options struct {
	queueSize int
	logger    Logger
	hooks     Hooks
}

// Option configures a Pool.
type Option func(*options)

// WithQueueSize sets the queue capacity. Zero means every submission waits for
// an idle worker to take the task. Negative values are ignored.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.queueSize = n
		}
	}
}

// WithLogger sets the logger used for worker lifecycle and task panics.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHooks installs lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		o.hooks = h
	}
}
