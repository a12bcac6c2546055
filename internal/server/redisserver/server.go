package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/internal/server/ratelimit"
	"github.com/yndnr/tasklist-go/internal/telemetry/metric"
	"github.com/yndnr/tasklist-go/pkg/cmap"
	"github.com/yndnr/tasklist-go/pkg/ctxlocal"
)

// Config holds the Redis server configuration.
type Config struct {
	// Address is the listen address.
	Address string
	// ReadTimeout is the timeout for reading a command (default: 30s).
	// Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections (default: 5m).
	IdleTimeout time.Duration
	// MaxConns caps concurrent connections. 0 means unlimited.
	MaxConns int
	// RateLimit is the maximum number of commands per second per IP.
	// Set to 0 to disable rate limiting.
	RateLimit float64
	// RateBurst is the per-IP burst allowance.
	RateBurst int
	// Limits bounds single requests. Zero fields take DefaultLimits.
	Limits Limits
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		MaxConns:     1024,
		RateLimit:    1000,
		RateBurst:    2000,
		Limits:       DefaultLimits(),
	}
}

// Server represents the Redis protocol server.
type Server struct {
	cfg     *Config
	svc     *service.TaskService
	handler *CommandHandler
	logger  *slog.Logger

	ln      net.Listener
	running atomic.Bool
	conns   *cmap.Map[*Conn]
	slots   chan struct{}
	wg      sync.WaitGroup
}

// Conn represents a single Redis client connection. Each connection is an
// execution context: ctx carries its execution id.
type Conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer

	ctx    context.Context
	id     string
	pushed atomic.Int64

	// failed is set when the current command replied with an error.
	// Only the serving goroutine touches it.
	failed bool

	closed atomic.Bool
}

func newConn(parent context.Context, c net.Conn) *Conn {
	ctx, id := ctxlocal.WithExecution(parent)
	return &Conn{
		netConn: c,
		br:      bufio.NewReader(c),
		bw:      bufio.NewWriter(c),
		ctx:     ctx,
		id:      id,
	}
}

// Close closes the underlying connection once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// ExecutionID returns the execution id of this connection.
func (c *Conn) ExecutionID() string {
	return c.id
}

// Pushed returns how many tasks this connection appended.
func (c *Conn) Pushed() int64 {
	return c.pushed.Load()
}

// New creates a new Redis protocol server. metrics may be nil.
func New(cfg *Config, svc *service.TaskService, metrics *metric.Registry, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit > 0 {
		limiter = ratelimit.New(cfg.RateLimit, cfg.RateBurst)
	}

	s := &Server{
		cfg:     cfg,
		svc:     svc,
		handler: NewCommandHandler(svc, limiter, metrics, logger),
		logger:  logger,
		conns:   cmap.New[*Conn](),
	}
	if cfg.MaxConns > 0 {
		s.slots = make(chan struct{}, cfg.MaxConns)
	}
	return s
}

// Start listens on the configured address and serves connections in the
// background until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("redis server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("redis server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ActiveConns returns the number of open client connections.
func (s *Server) ActiveConns() int {
	return s.conns.Count()
}

// Shutdown stops accepting, closes open connections and waits for their
// goroutines, which release each connection's journal.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}

	s.conns.Range(func(_ string, c *Conn) bool {
		_ = c.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		if !s.acquire() {
			s.logger.Warn("connection rejected, max clients reached", "remote", c.RemoteAddr())
			_ = c.SetWriteDeadline(time.Now().Add(time.Second))
			_, _ = c.Write([]byte("-ERR max number of clients reached\r\n"))
			_ = c.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release()
			s.serveConn(newConn(ctx, c))
		}()
	}
}

func (s *Server) acquire() bool {
	if s.slots == nil {
		return true
	}
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() {
	if s.slots != nil {
		<-s.slots
	}
}

func (s *Server) serveConn(c *Conn) {
	log := s.logger.With("remote", c.RemoteAddr(), "execution_id", c.id)
	s.conns.Set(c.id, c)
	defer func() {
		_ = c.Close()
		s.conns.Delete(c.id)
		if err := s.svc.ReleaseExecution(c.ctx); err != nil {
			log.Warn("failed to release connection journal", "error", err)
		}
		log.Debug("connection closed", "pushed", c.Pushed())
	}()

	// Shutdown may have swept connections before this one registered.
	if s.ln != nil && !s.running.Load() {
		return
	}

	// Helper to set deadline with fallback to defaults
	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}
	idleTimeout := s.cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 5 * time.Minute
	}

	requests := newRequestReader(c.br, s.cfg.Limits)
	for {
		// First byte: allow idle timeout (connection can stay idle between commands).
		if err := c.netConn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Debug("connection timed out")
				return
			}
			log.Debug("connection read error", "error", err)
			return
		}

		// After first byte: tighten to per-command read timeout (slowloris protection).
		if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		args, err := requests.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Debug("connection timed out")
				return
			}
			if errors.Is(err, ErrLimitExceeded) {
				log.Warn("protocol limit exceeded", "error", err)
				_ = c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
				c.replyError("ERR protocol limit exceeded")
				_ = c.bw.Flush()
				return
			}
			_ = c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.replyError("ERR protocol error: " + err.Error())
			_ = c.bw.Flush()
			return
		}

		if len(args) == 0 {
			_ = c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.replyError("ERR no command")
			if err := c.bw.Flush(); err != nil {
				return
			}
			continue
		}

		s.handler.Handle(c, args)
		if c.closed.Load() {
			return
		}

		if err := c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := c.bw.Flush(); err != nil {
			return
		}
	}
}
