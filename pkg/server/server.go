// Package server implements the broker's TCP connection frontend: it accepts
// client connections and hands each one to a connection that serially reads
// frames, dispatches them to the broker registry, and writes responses.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brokerlabs/leasebroker/internal/logger"
	"github.com/brokerlabs/leasebroker/pkg/broker"
	"github.com/brokerlabs/leasebroker/pkg/metrics"
	"github.com/google/uuid"
)

// Config holds the TCP frontend's configuration.
type Config struct {
	// BindAddress is the IP address to bind to. Empty or "0.0.0.0" binds
	// to all interfaces.
	BindAddress string

	// Port is the TCP port to listen on.
	Port int

	// MaxConnections limits concurrent client connections. 0 means
	// unlimited.
	MaxConnections int

	// ShutdownTimeout bounds how long Start, once shutdown begins, waits for
	// open connections to finish before returning. Stop itself does not wait.
	ShutdownTimeout time.Duration

	// DefaultLeaseDuration is used for an AcquireNext request that omits
	// duration.
	DefaultLeaseDuration time.Duration

	// MaxRetries is the number of failed settles tolerated before a
	// message is dead-lettered.
	MaxRetries int
}

// Server is the broker's TCP connection frontend.
type Server struct {
	cfg      Config
	registry *broker.Registry

	listener net.Listener
	connSem  chan struct{}

	activeConns sync.WaitGroup
	connCount   atomic.Int32

	shutdown     chan struct{}
	shutdownOnce sync.Once
	listenerMu   sync.RWMutex
}

// NewServer builds a Server over the given registry. Start must be called
// to begin accepting connections.
func NewServer(cfg Config, registry *broker.Registry) *Server {
	var connSem chan struct{}
	if cfg.MaxConnections > 0 {
		connSem = make(chan struct{}, cfg.MaxConnections)
	}
	if cfg.DefaultLeaseDuration <= 0 {
		cfg.DefaultLeaseDuration = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &Server{
		cfg:      cfg,
		registry: registry,
		connSem:  connSem,
		shutdown: make(chan struct{}),
	}
}

// ActiveConnections returns the current number of accepted connections.
func (s *Server) ActiveConnections() int32 {
	return s.connCount.Load()
}

// Start binds the listener and runs the accept loop until ctx is cancelled
// or Stop is called. It blocks until shutdown completes.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	logger.Info("broker server listening", "address", listener.Addr().String())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	for {
		if s.connSem != nil {
			select {
			case s.connSem <- struct{}{}:
			case <-s.shutdown:
				return s.waitGraceful()
			}
		}

		conn, err := listener.Accept()
		if err != nil {
			if s.connSem != nil {
				<-s.connSem
			}
			select {
			case <-s.shutdown:
				return s.waitGraceful()
			default:
				logger.Debug("accept error", logger.Err(err))
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		s.activeConns.Add(1)
		metrics.SetActiveConnections(s.connCount.Add(1))

		connID := uuid.NewString()
		logger.Debug("connection accepted", logger.ConnID(connID), logger.RemoteAddr(conn.RemoteAddr().String()))

		go func(c net.Conn, id string) {
			defer func() {
				_ = c.Close()
				s.activeConns.Done()
				remaining := s.connCount.Add(-1)
				metrics.SetActiveConnections(remaining)
				if s.connSem != nil {
					<-s.connSem
				}
				logger.Debug("connection closed", logger.ConnID(id), "active", remaining)
			}()

			conn := newConnection(id, c, s.registry, s.cfg)
			conn.serve(ctx)
		}(conn, connID)
	}
}

// Stop begins graceful shutdown: the listener is closed so no new
// connections are accepted, while connections already being served are
// allowed to finish their current frame.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		s.listenerMu.RLock()
		l := s.listener
		s.listenerMu.RUnlock()
		if l != nil {
			_ = l.Close()
		}
	})
}

func (s *Server) waitGraceful() error {
	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	select {
	case <-done:
		logger.Info("broker server stopped gracefully")
	case <-time.After(timeout):
		logger.Warn("broker server shutdown timed out waiting for connections")
	}
	return nil
}
