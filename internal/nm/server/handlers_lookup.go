package server

import (
	"time"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/nm/state"
	"github.com/BManav00/Docs/internal/protocol/ticket"
	"github.com/BManav00/Docs/internal/protocol/wire"
	"github.com/BManav00/Docs/internal/ssclient"
)

// lookupOps lists the operations a ticket can name. isReadClass ops
// require R; the rest require W.
var lookupOps = map[string]bool{
	"READ": true, "WRITE": true, "UNDO": true, "REVERT": true,
	"CHECKPOINT": true, "VIEWCHECKPOINT": true, "LISTCHECKPOINTS": true,
}

func isReadClass(op string) bool {
	return op == "READ" || op == "VIEWCHECKPOINT" || op == "LISTCHECKPOINTS"
}

// handleLookup authorizes one operation on one file and directs the
// client to the file's primary with a short-lived ticket.
func (c *conn) handleLookup(msg wire.Message) error {
	op, file := msg.Str("op"), msg.Str("file")
	user := userOf(msg)
	if file == "" || !lookupOps[op] {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}

	if !c.server.st.Exists(file) {
		if op != "WRITE" {
			return c.reply(wire.Reply(wire.ErrNotFound))
		}
		// First WRITE auto-provisions the file for the requester.
		if status := c.server.provisionFile(file, user, false, false); status != wire.StatusOK {
			return c.reply(wire.Reply(status))
		}
	}

	if isReadClass(op) {
		if !c.server.st.CanRead(file, user) {
			return c.reply(wire.Reply(wire.ErrNoAuth))
		}
	} else if !c.server.st.CanWrite(file, user) {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}

	now := time.Now().Unix()
	switch op {
	case "READ":
		c.server.st.TouchAccessed(file, user, now)
		c.server.saveState()
	case "WRITE":
		c.server.st.TouchModified(file, user, now)
		c.server.saveState()
	}

	primary, ok := c.server.st.Primary(file)
	if !ok {
		return c.reply(wire.Reply(wire.ErrInternal))
	}
	entry, ok := c.server.reg.Get(primary)
	if !ok || entry.DataPort == 0 {
		return c.reply(wire.Reply(wire.ErrUnavailable))
	}

	tkt := ticket.Build(file, op, primary, ticket.DefaultTTL)
	return c.reply(wire.OKReply(wire.Message{
		"ssAddr":     entry.Addr,
		"ssDataPort": entry.DataPort,
		"ticket":     tkt.String(),
	}))
}

// provisionFile creates a new file on the least-loaded storage server,
// records ownership, and assigns replicas. Used by explicit CREATE and by
// LOOKUP's WRITE auto-provisioning.
func (s *Server) provisionFile(file, owner string, publicRead, publicWrite bool) wire.Status {
	entry, ok := s.reg.PickPrimary(s.st.MappingCounts())
	if !ok {
		return wire.ErrUnavailable
	}
	status, err := ssclient.Client{Addr: entry.DataAddr()}.Create(file)
	if err != nil {
		logger.Warn("nm: create %s on ss%d failed: %v", file, entry.ID, err)
		return wire.ErrUnavailable
	}
	if status != wire.StatusOK {
		return status
	}

	s.st.SetPrimary(file, entry.ID)
	s.st.SetOwner(file, owner)
	s.st.Grant(file, owner, state.PermR|state.PermW)
	if publicWrite {
		s.st.Grant(file, state.Anonymous, state.PermR|state.PermW)
	} else if publicRead {
		s.st.Grant(file, state.Anonymous, state.PermR)
	}

	now := time.Now().Unix()
	s.st.TouchModified(file, owner, now)
	s.st.TouchAccessed(file, owner, now)

	replicas := s.reg.PickReplicas(entry.ID, s.cfg.ReplicaTarget)
	if len(replicas) > 0 {
		s.st.SetReplicas(file, replicas)
		for _, r := range replicas {
			s.repl.ScheduleCmd("CREATE", file, "", r)
		}
	}
	s.saveState()
	return wire.StatusOK
}
