package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nemanja-m/gopool/internal/shared/config"
	"github.com/nemanja-m/gopool/internal/shared/logging"
	"github.com/nemanja-m/gopool/pkg/pool"
)

// TaskSubmitter runs connection tasks. *pool.Pool implements it.
type TaskSubmitter interface {
	Submit(task pool.Task) error
}

// Server accepts connections and hands each one to a TaskSubmitter as a
// single task. It does no request handling on the accept goroutine.
type Server struct {
	cfg     config.HTTPConfig
	tasks   TaskSubmitter
	handler *Handler
	limiter *rate.Limiter
	logger  logging.Logger

	mu       sync.Mutex
	listener net.Listener
	closing  atomic.Bool
}

func NewServer(cfg config.HTTPConfig, tasks TaskSubmitter, handler *Handler, logger logging.Logger) *Server {
	limit := rate.Inf
	if cfg.AcceptRate > 0 {
		limit = rate.Limit(cfg.AcceptRate)
	}
	burst := cfg.AcceptBurst
	if burst <= 0 {
		burst = 1
	}

	return &Server{
		cfg:     cfg,
		tasks:   tasks,
		handler: handler,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends or Close is called. It
// returns nil in both of those cases. Serve always closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()
	defer ln.Close()

	s.logger.Info("Server listening", "addr", ln.Addr().String())

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 5 * time.Millisecond
	retry.MaxInterval = time.Second

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			if s.closing.Load() || ctx.Err() != nil {
				return nil
			}
			return err
		}

		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if !isTemporary(err) {
				return fmt.Errorf("accept: %w", err)
			}

			delay := retry.NextBackOff()
			s.logger.Warn("Accept failed, retrying", "error", err, "delay_ms", delay.Milliseconds())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		retry.Reset()

		s.dispatch(conn)
	}
}

// Close stops accepting new connections. Connections already handed to the
// task submitter are not affected.
func (s *Server) Close() error {
	s.closing.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) dispatch(conn net.Conn) {
	connID := uuid.NewString()
	err := s.tasks.Submit(func() {
		s.handleConn(conn, connID)
	})
	if err != nil {
		s.logger.Warn("Connection rejected",
			"conn_id", connID,
			"remote_addr", conn.RemoteAddr().String(),
			"error", err,
		)
		conn.Close()
	}
}

func (s *Server) handleConn(conn net.Conn, connID string) {
	defer conn.Close()
	start := time.Now()

	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout))
	}

	var resp Response
	req, err := ParseRequest(conn)
	switch {
	case errors.Is(err, io.EOF):
		s.logger.Debug("Connection closed before request", "conn_id", connID)
		return
	case err != nil:
		s.logger.Warn("Bad request", "conn_id", connID, "error", err)
		resp = NewResponse(StatusBadRequest, badRequestBody)
	default:
		resp = s.handler.Handle(req)
	}

	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	written, err := resp.WriteTo(conn)
	if err != nil {
		s.logger.Error("Failed to write response", "conn_id", connID, "error", err)
		return
	}

	s.logger.Info("HTTP request",
		"conn_id", connID,
		"method", req.Method,
		"path", req.Path,
		"remote_addr", conn.RemoteAddr().String(),
		"status", resp.Status.Code(),
		"bytes", written,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func isTemporary(err error) bool {
	var te interface{ Temporary() bool }
	return errors.As(err, &te) && te.Temporary()
}
