package server

import (
	"context"
	"fmt"
	"time"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/protocol/wire"
)

// Register announces this storage server to the naming manager. The data
// listener must already be bound so the NM never learns an unusable
// endpoint.
func (s *Server) Register() error {
	resp, err := wire.Call(s.cfg.NMAddr, wire.Message{
		"type":       "SS_REGISTER",
		"ssId":       s.cfg.ID,
		"ssCtrlPort": s.cfg.CtrlPort,
		"ssDataPort": s.cfg.DataPort,
	})
	if err != nil {
		return fmt.Errorf("register with nm: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("register with nm: %s", resp.Status())
	}
	logger.Info("ss%d registered with nm at %s", s.cfg.ID, s.cfg.NMAddr)
	return nil
}

// heartbeatLoop pings the naming manager every interval until the context
// is cancelled. Send failures are logged and retried on the next tick; the
// NM marks us down after its staleness window.
func (s *Server) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := wire.Call(s.cfg.NMAddr, wire.Message{
				"type": "SS_HEARTBEAT",
				"ssId": s.cfg.ID,
			})
			if err != nil {
				logger.Debug("ss%d heartbeat failed: %v", s.cfg.ID, err)
			}
		}
	}
}

// notifyCommit tells the NM the file's bytes changed so replication can
// fan out. Fire-and-forget: a failure only delays replication until the
// next commit.
func (s *Server) notifyCommit(file string) {
	go func() {
		if _, err := wire.Call(s.cfg.NMAddr, wire.Message{
			"type": "SS_COMMIT",
			"file": file,
			"ssId": s.cfg.ID,
		}); err != nil {
			logger.Debug("ss%d commit notify for %s failed: %v", s.cfg.ID, file, err)
		}
	}()
}

func (s *Server) notifyCheckpoint(file, name string) {
	go func() {
		if _, err := wire.Call(s.cfg.NMAddr, wire.Message{
			"type": "SS_CHECKPOINT",
			"file": file,
			"name": name,
			"ssId": s.cfg.ID,
		}); err != nil {
			logger.Debug("ss%d checkpoint notify for %s failed: %v", s.cfg.ID, file, err)
		}
	}()
}
