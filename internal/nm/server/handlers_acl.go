package server

import (
	"github.com/BManav00/Docs/internal/nm/state"
	"github.com/BManav00/Docs/internal/protocol/wire"
)

func (c *conn) handleAddAccess(msg wire.Message) error {
	file, target, mode := msg.Str("file"), msg.Str("user"), msg.Str("mode")
	if file == "" || target == "" || mode == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	// W is stored as W alone; readability of writers is a property of the
	// check, not of the stored bits.
	perm := state.ParsePerm(mode)
	if perm == 0 {
		perm = state.PermR
	}
	c.server.st.Grant(file, target, perm)
	// A fresh grant supersedes any pending request from the same user.
	c.server.st.RemoveRequest(file, target)
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleRemAccess(msg wire.Message) error {
	file, target := msg.Str("file"), msg.Str("user")
	if file == "" || target == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	c.server.st.Revoke(file, target)
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleRequestAccess(msg wire.Message) error {
	file, user := msg.Str("file"), msg.Str("user")
	if file == "" || user == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	mode := "R"
	if msg.Str("mode") == "W" {
		mode = "W"
	}
	if !c.server.st.Exists(file) {
		return c.reply(wire.Reply(wire.ErrNotFound))
	}
	if !c.server.st.AddRequest(file, user, mode) {
		return c.reply(wire.Reply(wire.ErrConflict))
	}
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleViewRequests(msg wire.Message) error {
	file, user := msg.Str("file"), msg.Str("user")
	if file == "" || user == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if owner := c.server.st.Owner(file); owner == "" || owner != user {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	reqs := c.server.st.Requests(file)
	out := make([]wire.Message, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, wire.Message{"user": r.User, "mode": r.Mode})
	}
	return c.reply(wire.OKReply(wire.Message{"requests": out}))
}

func (c *conn) handleApproveAccess(msg wire.Message) error {
	file, owner, target := msg.Str("file"), msg.Str("user"), msg.Str("target")
	if file == "" || owner == "" || target == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if actual := c.server.st.Owner(file); actual == "" || actual != owner {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	perm := state.PermR
	if mode := msg.Str("mode"); mode == "W" || mode == "RW" {
		perm = state.PermR | state.PermW
	}
	c.server.st.Grant(file, target, perm)
	c.server.st.RemoveRequest(file, target)
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleDenyAccess(msg wire.Message) error {
	file, owner, target := msg.Str("file"), msg.Str("user"), msg.Str("target")
	if file == "" || owner == "" || target == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if actual := c.server.st.Owner(file); actual == "" || actual != owner {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	c.server.st.RemoveRequest(file, target)
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}
