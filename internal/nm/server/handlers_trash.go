package server

import (
	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/nm/state"
	"github.com/BManav00/Docs/internal/protocol/wire"
	"github.com/BManav00/Docs/internal/ssclient"
)

func (c *conn) handleListTrash(msg wire.Message) error {
	entries := c.server.st.TrashList()
	out := make([]wire.Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, wire.Message{
			"file":    e.File,
			"trashed": e.Trashed,
			"owner":   e.Owner,
			"ssid":    e.SSID,
			"when":    e.When,
		})
	}
	return c.reply(wire.OKReply(wire.Message{"trash": out}))
}

// handleRestore renames a trashed file back to its original path and
// recreates the mapping and owner ACL.
func (c *conn) handleRestore(msg wire.Message) error {
	file := msg.Str("file")
	user := userOf(msg)
	if file == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if c.server.st.Exists(file) {
		return c.reply(wire.Reply(wire.ErrConflict))
	}
	entry, ok := c.server.st.TrashFind(file)
	if !ok {
		return c.reply(wire.Reply(wire.ErrNotFound))
	}
	if entry.Owner != "" && entry.Owner != user {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}

	addr, ok := c.server.reg.DataAddr(entry.SSID)
	if !ok {
		return c.reply(wire.Reply(wire.ErrUnavailable))
	}
	st, err := ssclient.Client{Addr: addr}.Rename(entry.Trashed, file)
	if err != nil {
		return c.reply(wire.Reply(wire.ErrUnavailable))
	}
	if st != wire.StatusOK {
		return c.reply(wire.Reply(st))
	}

	c.server.st.TrashRemove(file)
	c.server.st.SetPrimary(file, entry.SSID)
	if entry.Owner != "" {
		c.server.st.SetOwner(file, entry.Owner)
		c.server.st.Grant(file, entry.Owner, state.PermR|state.PermW)
	}
	for _, r := range c.server.st.Replicas(file) {
		c.server.repl.ScheduleCmd("RENAME", entry.Trashed, file, r)
	}
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}

// handleEmptyTrash purges one entry when a file is named, otherwise every
// entry owned by the caller. Physical deletes are best-effort.
func (c *conn) handleEmptyTrash(msg wire.Message) error {
	user := userOf(msg)
	target, hasTarget := msg.Str("file"), msg.Has("file")

	for _, e := range c.server.st.TrashList() {
		if hasTarget {
			if e.File != target {
				continue
			}
		} else if e.Owner != "" && e.Owner != user {
			continue
		}

		if addr, ok := c.server.reg.DataAddr(e.SSID); ok {
			if _, err := (ssclient.Client{Addr: addr}).Delete(e.Trashed); err != nil {
				logger.Warn("nm: purge of %s on ss%d failed: %v", e.Trashed, e.SSID, err)
			}
		}
		for _, r := range c.server.st.Replicas(e.File) {
			c.server.repl.ScheduleCmd("DELETE", e.Trashed, "", r)
		}
		c.server.st.TrashRemove(e.File)
	}
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}
