package httpserver

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemanja-m/gopool/internal/shared/config"
	"github.com/nemanja-m/gopool/pkg/pool"
)

type acceptResult struct {
	conn net.Conn
	err  error
}

// scriptedListener hands out queued Accept results and blocks once they run
// out, until it is closed.
type scriptedListener struct {
	results   chan acceptResult
	closed    chan struct{}
	closeOnce sync.Once
}

func newScriptedListener(results ...acceptResult) *scriptedListener {
	ln := &scriptedListener{
		results: make(chan acceptResult, len(results)),
		closed:  make(chan struct{}),
	}
	for _, r := range results {
		ln.results <- r
	}
	return ln
}

func (l *scriptedListener) Accept() (net.Conn, error) {
	select {
	case <-l.closed:
		return nil, net.ErrClosed
	default:
	}
	select {
	case r := <-l.results:
		return r.conn, r.err
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *scriptedListener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *scriptedListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
}

type temporaryError struct{}

func (temporaryError) Error() string   { return "too many open files" }
func (temporaryError) Timeout() bool   { return false }
func (temporaryError) Temporary() bool { return true }

// countingSubmitter records submissions without running them.
type countingSubmitter struct {
	calls atomic.Int32
}

func (c *countingSubmitter) Submit(pool.Task) error {
	c.calls.Add(1)
	return nil
}

func pipeConn(t *testing.T) net.Conn {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server
}

func serveScripted(t *testing.T, cfg config.HTTPConfig, ln net.Listener, tasks TaskSubmitter, logger *mockLogger) <-chan error {
	t.Helper()

	srv := NewServer(cfg, tasks, newTestHandler(t, fstest.MapFS{}, ""), logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		done <- srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})
	return done
}

func TestServer_RetriesTemporaryAcceptError(t *testing.T) {
	ln := newScriptedListener(
		acceptResult{err: temporaryError{}},
		acceptResult{conn: pipeConn(t)},
	)
	tasks := &countingSubmitter{}
	logger := newMockLogger()
	serveScripted(t, config.HTTPConfig{}, ln, tasks, logger)

	assert.Eventually(t, func() bool {
		return tasks.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, logger.getOutput(), "[WARN] Accept failed, retrying error=too many open files")
}

func TestServer_StopsOnPermanentAcceptError(t *testing.T) {
	ln := newScriptedListener(acceptResult{err: &net.OpError{Op: "accept", Err: assert.AnError}})
	done := serveScripted(t, config.HTTPConfig{}, ln, &countingSubmitter{}, newMockLogger())

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "accept")
	case <-time.After(time.Second):
		t.Fatal("Serve did not return on a permanent accept error")
	}
}

func TestServer_AcceptRateLimit(t *testing.T) {
	const conns = 3
	results := make([]acceptResult, 0, conns)
	for range conns {
		results = append(results, acceptResult{conn: pipeConn(t)})
	}
	ln := newScriptedListener(results...)
	tasks := &countingSubmitter{}

	cfg := config.HTTPConfig{AcceptRate: 10, AcceptBurst: 1}
	start := time.Now()
	serveScripted(t, cfg, ln, tasks, newMockLogger())

	assert.Eventually(t, func() bool {
		return tasks.calls.Load() == conns
	}, 2*time.Second, 5*time.Millisecond)

	// One token up front, then one every 100ms.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
