// Package pool provides a fixed-size worker pool.
//
// A Pool owns a fixed number of worker goroutines that receive tasks from one
// shared FIFO queue. Each task runs exactly once, on exactly one worker. The
// worker count is set at construction and never changes.
//
// # Basic Usage
//
//	p, err := pool.New(4)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	for _, conn := range conns {
//	    if err := p.Submit(func() { handle(conn) }); err != nil {
//	        conn.Close()
//	    }
//	}
//
// # Queue
//
// The queue is bounded. Submit blocks while it is full, SubmitContext gives up
// when its context ends, and TrySubmit returns ErrQueueFull instead of waiting.
// WithQueueSize(0) turns the queue into a direct hand-off to an idle worker.
//
// # Shutdown
//
// Shutdown and Close stop accepting tasks, then wait until every task that was
// already queued has run and every worker has exited. Submissions made after
// shutdown has begun fail with ErrPoolClosed and are never queued.
//
// # Limitations
//
// A task occupies its worker for as long as it runs. Long tasks in an
// undersized pool delay everything queued behind them. The pool imposes no
// timeout on a task and cannot cancel one that has started; a task that never
// returns stalls its worker for good, and Shutdown with a deadline reports
// ErrShutdownTimeout in that case.
//
// A panic inside a task is recovered and logged, and the worker goes back to
// waiting for the next task. A task that calls runtime.Goexit ends its worker
// goroutine; the pool starts a replacement so the worker count holds.
package pool
