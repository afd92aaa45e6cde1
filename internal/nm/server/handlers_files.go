package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/nm/state"
	"github.com/BManav00/Docs/internal/protocol/ticket"
	"github.com/BManav00/Docs/internal/protocol/wire"
	"github.com/BManav00/Docs/internal/ssclient"
)

// primaryClient resolves the file's primary data endpoint.
func (s *Server) primaryClient(file string) (ssclient.Client, int, wire.Status) {
	primary, ok := s.st.Primary(file)
	if !ok {
		return ssclient.Client{}, 0, wire.ErrNotFound
	}
	addr, ok := s.reg.DataAddr(primary)
	if !ok {
		return ssclient.Client{}, 0, wire.ErrUnavailable
	}
	return ssclient.Client{Addr: addr}, primary, wire.StatusOK
}

func (c *conn) handleCreate(msg wire.Message) error {
	file := msg.Str("file")
	user := userOf(msg)
	if file == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if c.server.st.Exists(file) {
		return c.reply(wire.Reply(wire.ErrConflict))
	}
	status := c.server.provisionFile(file, user, truthy(msg, "publicRead"), truthy(msg, "publicWrite"))
	return c.reply(wire.Reply(status))
}

// trashedPath builds the soft-delete target: .trash/<epoch>_<flattened>.
func trashedPath(file string, when int64) string {
	return fmt.Sprintf(".trash/%d_%s", when, strings.ReplaceAll(file, "/", "_"))
}

// handleDelete soft-deletes: the primary renames the file into .trash and
// the naming state forgets the mapping but remembers the trash entry.
func (c *conn) handleDelete(msg wire.Message) error {
	file := msg.Str("file")
	user := userOf(msg)
	if file == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.server.st.Exists(file) {
		return c.reply(wire.Reply(wire.ErrNotFound))
	}
	owner := c.server.st.Owner(file)
	if owner == "" || owner != user {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}

	client, primary, status := c.server.primaryClient(file)
	if status != wire.StatusOK {
		return c.reply(wire.Reply(status))
	}
	now := time.Now().Unix()
	trashed := trashedPath(file, now)
	st, err := client.Rename(file, trashed)
	if err != nil {
		return c.reply(wire.Reply(wire.ErrUnavailable))
	}
	if st != wire.StatusOK {
		return c.reply(wire.Reply(st))
	}

	replicas := c.server.st.Replicas(file)
	for _, r := range replicas {
		c.server.repl.ScheduleCmd("RENAME", file, trashed, r)
	}
	c.server.st.DeleteFile(file)
	c.server.st.DeleteACL(file)
	c.server.st.ClearRequests(file)
	c.server.st.TrashAdd(state.TrashEntry{
		File:    file,
		Trashed: trashed,
		SSID:    primary,
		Owner:   owner,
		When:    now,
	})
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleRename(msg wire.Message) error {
	file, newFile := msg.Str("file"), msg.Str("newFile")
	user := userOf(msg)
	if file == "" || newFile == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.server.st.Exists(file) {
		return c.reply(wire.Reply(wire.ErrNotFound))
	}
	if !c.server.st.CanWrite(file, user) {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	if c.server.st.Exists(newFile) {
		return c.reply(wire.Reply(wire.ErrConflict))
	}
	return c.reply(wire.Reply(c.server.renameFile(file, newFile)))
}

// renameFile drives the physical rename on the primary, then the naming
// state, then the replica fan-out.
func (s *Server) renameFile(file, newFile string) wire.Status {
	client, _, status := s.primaryClient(file)
	if status != wire.StatusOK {
		return status
	}
	st, err := client.Rename(file, newFile)
	if err != nil {
		return wire.ErrUnavailable
	}
	switch st {
	case wire.StatusOK:
	case wire.ErrConflict, wire.ErrNotFound:
		return st
	default:
		return wire.ErrInternal
	}

	s.st.RenameFile(file, newFile)
	s.st.RenameACL(file, newFile)
	for _, r := range s.st.Replicas(newFile) {
		s.repl.ScheduleCmd("RENAME", file, newFile, r)
	}
	s.saveState()
	return wire.StatusOK
}

// handleMove moves a file or a folder prefix. A destination naming a
// known folder receives the source's basename.
func (c *conn) handleMove(msg wire.Message) error {
	src, dstIn := msg.Str("src"), msg.Str("dst")
	user := userOf(msg)
	if src == "" || !msg.Has("dst") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}

	dst := strings.TrimRight(dstIn, "/")
	if c.server.st.HasFolder(dst) {
		base := src
		if i := strings.LastIndex(src, "/"); i >= 0 {
			base = src[i+1:]
		}
		if dst == "" {
			dst = base
		} else {
			dst = dst + "/" + base
		}
	}
	if src == dst {
		return c.reply(wire.Reply(wire.StatusOK))
	}

	if c.server.st.Exists(src) {
		if !c.server.st.CanWrite(src, user) {
			return c.reply(wire.Reply(wire.ErrNoAuth))
		}
		if c.server.st.Exists(dst) {
			return c.reply(wire.Reply(wire.ErrConflict))
		}
		return c.reply(wire.Reply(c.server.renameFile(src, dst)))
	}

	// Folder move: remap every file under the prefix, then drive the
	// physical renames. A per-file failure leaves partial state, which is
	// tolerated but reported.
	moved := c.server.st.MoveFolderPrefix(src, dst)
	if moved == nil {
		return c.reply(wire.Reply(wire.ErrNotFound))
	}
	failures := 0
	for _, m := range moved {
		addr, ok := c.server.reg.DataAddr(m.SSID)
		if !ok {
			failures++
			continue
		}
		st, err := ssclient.Client{Addr: addr}.Rename(m.OldFile, m.NewFile)
		if err != nil || st != wire.StatusOK {
			logger.Warn("nm: folder move rename %s -> %s on ss%d failed: status=%s err=%v", m.OldFile, m.NewFile, m.SSID, st, err)
			failures++
			continue
		}
		c.server.st.RenameACL(m.OldFile, m.NewFile)
		for _, r := range c.server.st.Replicas(m.NewFile) {
			c.server.repl.ScheduleCmd("RENAME", m.OldFile, m.NewFile, r)
		}
	}
	c.server.saveState()
	if failures > 0 {
		return c.reply(wire.Reply(wire.ErrInternal))
	}
	return c.reply(wire.Reply(wire.StatusOK))
}

// handleMigrate explicitly moves a file's bytes to a target storage
// server and repoints the primary mapping.
func (c *conn) handleMigrate(msg wire.Message) error {
	file := msg.Str("file")
	target := msg.Int("targetSsId")
	user := userOf(msg)
	if file == "" || !msg.Has("targetSsId") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	primary, ok := c.server.st.Primary(file)
	if !ok {
		return c.reply(wire.Reply(wire.ErrNotFound))
	}
	if primary == target {
		return c.reply(wire.Reply(wire.StatusOK))
	}
	if !c.server.st.CanWrite(file, user) {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}

	srcAddr, okSrc := c.server.reg.DataAddr(primary)
	dstAddr, okDst := c.server.reg.DataAddr(target)
	if !okSrc || !okDst {
		return c.reply(wire.Reply(wire.ErrUnavailable))
	}

	tkt := ticket.Build(file, "READ", primary, ticket.DefaultTTL).String()
	body, st, err := ssclient.Client{Addr: srcAddr}.Read(file, tkt)
	if err != nil || st != wire.StatusOK {
		return c.reply(wire.Reply(wire.ErrUnavailable))
	}
	if st, err := (ssclient.Client{Addr: dstAddr}).Put(file, body); err != nil {
		return c.reply(wire.Reply(wire.ErrUnavailable))
	} else if st != wire.StatusOK {
		return c.reply(wire.Reply(wire.ErrInternal))
	}
	// Source cleanup is best-effort: the mapping repoint is what matters.
	if _, err := (ssclient.Client{Addr: srcAddr}).Delete(file); err != nil {
		logger.Warn("nm: migrate cleanup of %s on ss%d failed: %v", file, primary, err)
	}

	c.server.st.SetPrimary(file, target)
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}

// handleCreateFolder records the logical folder and mirrors it physically
// on one available storage server for listing convenience.
func (c *conn) handleCreateFolder(msg wire.Message) error {
	path := msg.Str("path")
	if path == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	c.server.st.AddFolder(path)
	c.server.saveState()

	for _, e := range c.server.reg.List() {
		if !e.Up || e.DataPort == 0 {
			continue
		}
		if _, err := (ssclient.Client{Addr: e.DataAddr()}).CreateFolder(path); err != nil {
			logger.Debug("nm: physical createfolder %s on ss%d failed: %v", path, e.ID, err)
		}
		break
	}
	return c.reply(wire.Reply(wire.StatusOK))
}

// handleViewFolder lists the immediate child folders and files of a
// logical folder. "", "/" and "~" all mean the root.
func (c *conn) handleViewFolder(msg wire.Message) error {
	in := msg.Str("path")
	path, label := in, in
	if in == "" || in == "/" || in == "~" {
		path, label = "", "~"
	}
	folders := c.server.st.ChildFolders(path)
	files := c.server.st.ChildFiles(path)
	return c.reply(wire.OKReply(wire.Message{
		"path":    label,
		"folders": folders,
		"files":   files,
	}))
}
