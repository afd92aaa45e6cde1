// Package server implements the storage server: the data-port request
// loop, the per-connection write session state machine, the sentence lock
// table, and the heartbeat link back to the naming manager.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/ss/store"
)

// Config carries the storage server's identity and endpoints.
type Config struct {
	ID       int
	NMAddr   string // naming manager control endpoint, host:port
	CtrlPort int
	DataPort int
	Root     string // store root, e.g. ss_data/ss1

	HeartbeatInterval time.Duration
	StreamDelay       time.Duration
}

// Server owns the store, the lock table, and the data listener.
type Server struct {
	cfg      Config
	store    *store.Store
	locks    *lockTable
	listener net.Listener
}

// New opens the on-disk store and prepares a server. Listen must be called
// before Register so the advertised data port is actually bound.
func New(cfg Config) (*Server, error) {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = time.Second
	}
	if cfg.StreamDelay <= 0 {
		cfg.StreamDelay = 100 * time.Millisecond
	}
	st, err := store.Open(cfg.Root)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, store: st, locks: newLockTable()}, nil
}

// Store exposes the underlying store, mainly for tests.
func (s *Server) Store() *store.Store { return s.store }

// Listen binds the data port.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.DataPort))
	if err != nil {
		return fmt.Errorf("bind data port %d: %w", s.cfg.DataPort, err)
	}
	s.listener = ln
	// An ephemeral bind (port 0) must advertise the port it actually got.
	if s.cfg.DataPort == 0 {
		s.cfg.DataPort = ln.Addr().(*net.TCPAddr).Port
	}
	return nil
}

// Addr returns the bound data listener address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until the context is cancelled. Each
// connection runs on its own goroutine and owns its write session.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	go s.heartbeatLoop(ctx)

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	logger.Info("ss%d data server listening on %d", s.cfg.ID, s.cfg.DataPort)
	for {
		tcpConn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				logger.Debug("ss%d accept error: %v", s.cfg.ID, err)
				continue
			}
		}
		c := &conn{server: s, conn: tcpConn}
		go c.serve(ctx)
	}
}

// Stop closes the listener.
func (s *Server) Stop() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
