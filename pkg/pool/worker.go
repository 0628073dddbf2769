package pool

import (
	"runtime/debug"
	"time"
)

// worker receives tasks from the pool queue until it is closed and drained.
// Its id is only used in logs.
type worker struct {
	id   int
	pool *Pool
}

func newWorker(id int, p *Pool) *worker {
	return &worker{id: id, pool: p}
}

func (w *worker) run() {
	w.pool.logger.Debug("Worker started", "worker_id", w.id)
	for task := range w.pool.tasks {
		w.execute(task)
	}
	w.pool.logger.Debug("Worker stopped", "worker_id", w.id)
}

// execute runs task and recovers a panic so the worker survives it. A task
// that calls runtime.Goexit takes the worker goroutine down with it, so a
// replacement with the same id takes over the queue.
func (w *worker) execute(task Task) {
	p := w.pool
	p.running.Add(1)
	w.callHook("start", func() { p.hooks.start(w.id) })
	start := time.Now()
	returned := false

	defer func() {
		failed := false
		if r := recover(); r != nil {
			failed = true
			p.panicked.Add(1)
			p.logger.Error("Task panicked",
				"worker_id", w.id,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		} else if !returned {
			failed = true
			p.panicked.Add(1)
			p.logger.Error("Task exited its goroutine, replacing worker", "worker_id", w.id)
			// The wait group still counts this goroutine, so Add cannot race Wait.
			p.wg.Go(w.run)
		} else {
			p.completed.Add(1)
		}
		p.running.Add(-1)
		w.callHook("finish", func() { p.hooks.finish(w.id, time.Since(start), failed) })
	}()

	task()
	returned = true
}

// callHook runs a lifecycle hook and recovers a panic raised by it.
func (w *worker) callHook(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.pool.logger.Error("Hook panicked", "worker_id", w.id, "hook", name, "panic", r)
		}
	}()
	fn()
}
