package server

import (
	"strings"

	"github.com/BManav00/Docs/internal/protocol/ticket"
	"github.com/BManav00/Docs/internal/protocol/wire"
)

// handleInfo combines the storage server's file stats with the naming
// manager's ownership and access-tracking metadata.
func (c *conn) handleInfo(msg wire.Message) error {
	file := msg.Str("file")
	user := userOf(msg)
	if file == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.server.st.Exists(file) {
		return c.reply(wire.Reply(wire.ErrNotFound))
	}
	if !c.server.st.CanRead(file, user) {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}

	client, primary, status := c.server.primaryClient(file)
	if status != wire.StatusOK {
		return c.reply(wire.Reply(status))
	}
	tkt := ticket.Build(file, "READ", primary, ticket.DefaultTTL).String()
	info, err := client.Info(file, tkt)
	if err != nil {
		return c.reply(wire.Reply(wire.ErrUnavailable))
	}
	if !info.OK() {
		return c.reply(wire.Reply(info.Status()))
	}

	entry, _ := c.server.st.Entry(file)
	return c.reply(wire.OKReply(wire.Message{
		"file":               file,
		"owner":              c.server.st.Owner(file),
		"size":               info.Int("size"),
		"words":              info.Int("words"),
		"chars":              info.Int("chars"),
		"mtime":              info.Int("mtime"),
		"atime":              info.Int("atime"),
		"access":             c.server.st.FormatAccess(file),
		"last_modified_user": entry.LastModifiedUser,
		"last_modified_time": entry.LastModifiedTime,
		"last_accessed_user": entry.LastAccessedUser,
		"last_accessed_time": entry.LastAccessedTime,
	}))
}

// handleView lists files. Without -a only files the caller can read or
// write; with -l each shown file carries stats fetched from its primary.
func (c *conn) handleView(msg wire.Message) error {
	user := userOf(msg)
	flags := msg.Str("flags")
	all := strings.ContainsRune(flags, 'a')
	detailed := strings.ContainsRune(flags, 'l')

	files := c.server.st.Files()
	if !detailed {
		shown := []string{}
		for _, f := range files {
			if all || c.server.st.CanRead(f, user) || c.server.st.CanWrite(f, user) {
				shown = append(shown, f)
			}
		}
		return c.reply(wire.OKReply(wire.Message{"files": shown}))
	}

	details := []wire.Message{}
	for _, f := range files {
		canR := c.server.st.CanRead(f, user)
		canW := c.server.st.CanWrite(f, user)
		if !all && !canR && !canW {
			continue
		}
		d := wire.Message{
			"name": f, "words": 0, "chars": 0, "size": 0, "mtime": 0, "atime": 0,
			"owner": c.server.st.Owner(f),
		}
		if canR || canW {
			if client, primary, status := c.server.primaryClient(f); status == wire.StatusOK {
				op := "READ"
				if !canR {
					op = "WRITE"
				}
				tkt := ticket.Build(f, op, primary, ticket.DefaultTTL).String()
				if info, err := client.Info(f, tkt); err == nil && info.OK() {
					d["words"] = info.Int("words")
					d["chars"] = info.Int("chars")
					d["size"] = info.Int("size")
					d["mtime"] = info.Int("mtime")
					d["atime"] = info.Int("atime")
				}
			}
		}
		details = append(details, d)
	}
	return c.reply(wire.OKReply(wire.Message{"details": details}))
}

func (c *conn) handleStats(msg wire.Message) error {
	return c.reply(wire.OKReply(wire.Message{
		"files": len(c.server.st.Files()),
		// Sentence locks live at the storage servers; the NM does not
		// track them.
		"activeLocks":      -1,
		"replicationQueue": c.server.repl.Queued(),
	}))
}

func (c *conn) handleListSS(msg wire.Message) error {
	servers := []wire.Message{}
	for _, e := range c.server.reg.List() {
		servers = append(servers, wire.Message{
			"id":   e.ID,
			"ctrl": e.CtrlPort,
			"data": e.DataPort,
			"addr": e.Addr,
			"up":   e.Up,
		})
	}
	return c.reply(wire.OKReply(wire.Message{"servers": servers}))
}
