package server

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/protocol/ticket"
	"github.com/BManav00/Docs/internal/protocol/wire"
	"github.com/BManav00/Docs/internal/ss/doc"
)

// handleExec fetches the document from its primary, decodes its escape
// sequences, and runs it through the host shell, streaming combined
// stdout/stderr back in chunk frames and terminating with a STOP frame
// carrying the exit code.
func (c *conn) handleExec(msg wire.Message) error {
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
	body, st, err := client.Read(file, tkt)
	if err != nil {
		return c.reply(wire.Reply(wire.ErrUnavailable))
	}
	if st != wire.StatusOK {
		return c.reply(wire.Reply(st))
	}

	cmd := exec.Command("/bin/sh", "-s")
	cmd.Stdin = strings.NewReader(doc.Unescape(body))
	if dir := c.server.execDir(); dir != "" {
		cmd.Dir = dir
	}
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		logger.Error("nm: exec %s: %v", file, err)
		return c.reply(wire.Reply(wire.ErrInternal))
	}
	if err := c.reply(wire.OKReply(wire.Message{"stream": "EXEC"})); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		pw.Close()
		return err
	}

	go func() {
		cmd.Wait()
		pw.Close()
	}()

	var sendErr error
	buf := make([]byte, 512)
	for {
		n, err := pr.Read(buf)
		if n > 0 && sendErr == nil {
			sendErr = c.reply(wire.OKReply(wire.Message{"chunk": string(buf[:n])}))
		}
		if err != nil {
			break
		}
	}

	exit := 0
	if state := cmd.ProcessState; state != nil {
		exit = state.ExitCode()
	}
	if sendErr != nil {
		return sendErr
	}
	return c.reply(wire.Message{"status": string(wire.StatusStop), "exit": exit})
}

// execDir picks a working directory for EXEC: the files root of the first
// up storage server whose store is on this host, if any.
func (s *Server) execDir() string {
	root := s.cfg.DataRoot
	if root == "" {
		root = "ss_data"
	}
	for _, e := range s.reg.List() {
		if !e.Up {
			continue
		}
		dir := filepath.Join(root, fmt.Sprintf("ss%d", e.ID), "files")
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir
		}
	}
	return ""
}
