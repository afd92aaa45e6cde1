package server

import (
	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/protocol/wire"
)

func (c *conn) handleSSRegister(msg wire.Message) error {
	ssID := msg.Int("ssId")
	ctrlPort := msg.Int("ssCtrlPort")
	dataPort := msg.Int("ssDataPort")
	if ssID == 0 || dataPort == 0 {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	addr := c.peerHost()
	c.server.reg.Register(ssID, addr, ctrlPort, dataPort)
	logger.Info("nm: registered ss%d ctrl=%d data=%d addr=%s", ssID, ctrlPort, dataPort, addr)

	// A register is also a rejoin: catch the server up on everything it
	// replicates.
	c.server.resyncReplica(ssID)
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleSSHeartbeat(msg wire.Message) error {
	ssID := msg.Int("ssId")
	if ssID == 0 {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if c.server.reg.Heartbeat(ssID, c.peerHost()) {
		logger.Info("nm: ss%d transitioned UP", ssID)
		c.server.resyncReplica(ssID)
	}
	return c.reply(wire.Reply(wire.StatusOK))
}

// handleSSCommit fans a primary's committed bytes out to its replicas.
// Commits reported by a non-primary (e.g. a stale primary after failover)
// are acknowledged but not replicated.
func (c *conn) handleSSCommit(msg wire.Message) error {
	file := msg.Str("file")
	ssID := msg.Int("ssId")
	if file == "" || ssID == 0 {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if primary, ok := c.server.st.Primary(file); ok && primary == ssID {
		for _, replica := range c.server.st.Replicas(file) {
			c.server.repl.SchedulePut(file, primary, replica)
		}
	}
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleSSCheckpoint(msg wire.Message) error {
	file, name := msg.Str("file"), msg.Str("name")
	ssID := msg.Int("ssId")
	if file == "" || name == "" || ssID == 0 {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if primary, ok := c.server.st.Primary(file); ok && primary == ssID {
		for _, replica := range c.server.st.Replicas(file) {
			c.server.repl.ScheduleCheckpoint(file, name, primary, replica)
		}
	}
	return c.reply(wire.Reply(wire.StatusOK))
}
