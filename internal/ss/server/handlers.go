package server

import (
	"errors"
	"strings"
	"time"

	"github.com/BManav00/Docs/internal/protocol/wire"
	"github.com/BManav00/Docs/internal/ss/store"
)

func statusFor(err error) wire.Status {
	switch {
	case err == nil:
		return wire.StatusOK
	case errors.Is(err, store.ErrNotFound):
		return wire.ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return wire.ErrConflict
	default:
		return wire.ErrInternal
	}
}

func (c *conn) handleRead(msg wire.Message) error {
	file := msg.Str("file")
	if file == "" || !msg.Has("ticket") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.checkTicket(msg, "READ") {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	body, err := c.server.store.Read(file)
	if err != nil {
		return c.reply(wire.Reply(statusFor(err)))
	}
	return c.reply(wire.OKReply(wire.Message{"body": string(body)}))
}

// handleStream emits the file word by word with a pacing delay, then the
// STOP sentinel. Any send error stops the stream; the peer has gone away.
func (c *conn) handleStream(msg wire.Message) error {
	file := msg.Str("file")
	if file == "" || !msg.Has("ticket") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.checkTicket(msg, "READ") {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	body, err := c.server.store.Read(file)
	if err != nil {
		return c.reply(wire.Reply(statusFor(err)))
	}
	for _, word := range strings.Fields(string(body)) {
		if err := c.reply(wire.OKReply(wire.Message{"word": word})); err != nil {
			return err
		}
		time.Sleep(c.server.cfg.StreamDelay)
	}
	return c.reply(wire.Reply(wire.StatusStop))
}

func (c *conn) handleCreate(msg wire.Message) error {
	file := msg.Str("file")
	if file == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	return c.reply(wire.Reply(statusFor(c.server.store.Create(file))))
}

func (c *conn) handleDelete(msg wire.Message) error {
	file := msg.Str("file")
	if file == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	return c.reply(wire.Reply(statusFor(c.server.store.Delete(file))))
}

func (c *conn) handleCreateFolder(msg wire.Message) error {
	path := msg.Str("path")
	if path == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if err := c.server.store.CreateFolder(path); err != nil {
		return c.reply(wire.Reply(wire.ErrInternal))
	}
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleUndo(msg wire.Message) error {
	file := msg.Str("file")
	if file == "" || !msg.Has("ticket") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.checkTicket(msg, "UNDO") {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	if err := c.server.store.Undo(file); err != nil {
		return c.reply(wire.Reply(statusFor(err)))
	}
	c.server.notifyCommit(file)
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleRevert(msg wire.Message) error {
	file, name := msg.Str("file"), msg.Str("name")
	if file == "" || name == "" || !msg.Has("ticket") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.checkTicket(msg, "REVERT") {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	if err := c.server.store.Revert(file, name); err != nil {
		return c.reply(wire.Reply(statusFor(err)))
	}
	c.server.notifyCommit(file)
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleCheckpoint(msg wire.Message) error {
	file, name := msg.Str("file"), msg.Str("name")
	if file == "" || name == "" || !msg.Has("ticket") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.checkTicket(msg, "CHECKPOINT") {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	if err := c.server.store.Checkpoint(file, name); err != nil {
		return c.reply(wire.Reply(statusFor(err)))
	}
	c.server.notifyCheckpoint(file, name)
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleViewCheckpoint(msg wire.Message) error {
	file, name := msg.Str("file"), msg.Str("name")
	if file == "" || name == "" || !msg.Has("ticket") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.checkTicket(msg, "VIEWCHECKPOINT") {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	body, err := c.server.store.ReadCheckpoint(file, name)
	if err != nil {
		return c.reply(wire.Reply(statusFor(err)))
	}
	return c.reply(wire.OKReply(wire.Message{"body": string(body)}))
}

func (c *conn) handleListCheckpoints(msg wire.Message) error {
	file := msg.Str("file")
	if file == "" || !msg.Has("ticket") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	// A view ticket is accepted too; listing is part of browsing.
	if !c.checkTicket(msg, "LISTCHECKPOINTS") && !c.checkTicket(msg, "VIEWCHECKPOINT") {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	names := c.server.store.ListCheckpoints(file)
	if names == nil {
		names = []string{}
	}
	return c.reply(wire.OKReply(wire.Message{"checkpoints": names}))
}

func (c *conn) handleRename(msg wire.Message) error {
	file, newFile := msg.Str("file"), msg.Str("newFile")
	if file == "" || newFile == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	return c.reply(wire.Reply(statusFor(c.server.store.Rename(file, newFile))))
}

func (c *conn) handlePut(msg wire.Message) error {
	file := msg.Str("file")
	if file == "" || !msg.Has("body") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if err := c.server.store.Replace(file, []byte(msg.Str("body"))); err != nil {
		return c.reply(wire.Reply(wire.ErrInternal))
	}
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handlePutUndo(msg wire.Message) error {
	file := msg.Str("file")
	if file == "" || !msg.Has("body") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if err := c.server.store.WriteUndo(file, []byte(msg.Str("body"))); err != nil {
		return c.reply(wire.Reply(wire.ErrInternal))
	}
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handlePutCheckpoint(msg wire.Message) error {
	file, name := msg.Str("file"), msg.Str("name")
	if file == "" || name == "" || !msg.Has("body") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if err := c.server.store.WriteCheckpoint(file, name, []byte(msg.Str("body"))); err != nil {
		return c.reply(wire.Reply(wire.ErrInternal))
	}
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleInfo(msg wire.Message) error {
	file := msg.Str("file")
	if file == "" || !msg.Has("ticket") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	// Readers and writers may both inspect a file.
	if !c.checkTicket(msg, "READ") && !c.checkTicket(msg, "WRITE") {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	info, err := c.server.store.Stat(file)
	if err != nil {
		return c.reply(wire.Reply(statusFor(err)))
	}
	return c.reply(wire.OKReply(wire.Message{
		"size":  info.Size,
		"mtime": info.MTime,
		"atime": info.ATime,
		"words": info.Words,
		"chars": info.Chars,
	}))
}
