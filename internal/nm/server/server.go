// Package server implements the naming manager: the control-port request
// loop, the lookup/authorization path, file lifecycle orchestration
// against storage servers, and the failover monitor.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/nm/registry"
	"github.com/BManav00/Docs/internal/nm/replicator"
	"github.com/BManav00/Docs/internal/nm/state"
)

// Config carries the naming manager's settings.
type Config struct {
	Port      int
	StatePath string

	// ReplicaTarget is how many replicas each file should have.
	ReplicaTarget int

	// StaleAfter is the heartbeat staleness window before a storage
	// server is considered down.
	StaleAfter time.Duration

	// MonitorInterval is the failover monitor's scan period.
	MonitorInterval time.Duration

	// DataRoot is where co-located storage servers keep their stores;
	// used only to pick a working directory for EXEC.
	DataRoot string
}

// Server wires the state store, the SS registry, and the replication
// workers behind the control listener.
type Server struct {
	cfg      Config
	st       *state.Store
	reg      *registry.Registry
	repl     *replicator.Replicator
	listener net.Listener
}

// New builds a server around an already-loaded state store.
func New(cfg Config, st *state.Store) *Server {
	if cfg.ReplicaTarget <= 0 {
		cfg.ReplicaTarget = 1
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = time.Second
	}
	reg := registry.New(cfg.StaleAfter)
	return &Server{
		cfg:  cfg,
		st:   st,
		reg:  reg,
		repl: replicator.New(reg),
	}
}

// State exposes the store, mainly for tests.
func (s *Server) State() *state.Store { return s.st }

// Registry exposes the SS registry, mainly for tests.
func (s *Server) Registry() *registry.Registry { return s.reg }

// Listen binds the control port.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("bind control port %d: %w", s.cfg.Port, err)
	}
	s.listener = ln
	return nil
}

// Serve accepts control connections until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	go s.monitor(ctx)
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	logger.Info("nm listening on port %d", s.cfg.Port)
	for {
		tcpConn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				logger.Debug("nm accept error: %v", err)
				continue
			}
		}
		c := &conn{server: s, conn: tcpConn}
		go c.serve(ctx)
	}
}

// Addr returns the bound control listener address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Stop closes the listener.
func (s *Server) Stop() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// monitor runs the liveness sweep and promotes replicas of downed
// primaries. Promotion swaps roles: the first up replica becomes primary
// and the old primary moves to the head of the replica list, so it is
// resynced and preferred once it comes back.
func (s *Server) monitor(ctx context.Context) {
	tick := time.NewTicker(s.cfg.MonitorInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			for _, id := range s.reg.Sweep(now) {
				logger.Warn("nm: ss%d marked DOWN", id)
			}
			s.promoteOrphans()
		}
	}
}

func (s *Server) promoteOrphans() {
	promoted := false
	for _, file := range s.st.Files() {
		primary, ok := s.st.Primary(file)
		if !ok || s.reg.IsUp(primary) {
			continue
		}
		for _, cand := range s.st.Replicas(file) {
			if !s.reg.IsUp(cand) {
				continue
			}
			replicas := append([]int{primary}, s.st.Replicas(file)...)
			s.st.SetPrimary(file, cand)
			s.st.SetReplicas(file, replicas) // dedups and drops the new primary
			logger.Warn("nm: promoted %s primary -> ss%d; old primary ss%d demoted to replica", file, cand, primary)
			promoted = true
			break
		}
	}
	if promoted {
		s.saveState()
	}
}

func (s *Server) saveState() {
	if err := s.st.Save(); err != nil {
		logger.Error("nm: state save failed: %v", err)
	}
}

// resyncReplica enqueues the full catch-up fan-out for every file whose
// replica set contains the rejoined server.
func (s *Server) resyncReplica(ssid int) {
	for file, primary := range s.st.FilesReplicatedOn(ssid) {
		logger.Info("nm: resyncing %s to rejoined ss%d", file, ssid)
		s.repl.ScheduleResync(file, primary, ssid)
	}
}
