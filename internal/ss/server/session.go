package server

import (
	"errors"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/protocol/wire"
	"github.com/BManav00/Docs/internal/ss/doc"
	"github.com/BManav00/Docs/internal/ss/store"
)

// writeSession is the per-connection edit state machine:
// BEGIN_WRITE acquires the sentence lock and captures the pre-image,
// APPLY mutates the tokenized copy, END_WRITE merges the single edited
// sentence back into whatever is on disk now and commits atomically.
type writeSession struct {
	active   bool
	file     string
	sentence int
	doc      *doc.Document
	preImage []byte
}

// abortSession releases the lock and drops session state. Safe to call
// when no session is active.
func (c *conn) abortSession() {
	if !c.session.active {
		return
	}
	c.server.locks.Release(c.session.file, c.session.sentence)
	c.session = writeSession{}
}

// handleBeginWrite starts a session. The OK is sent as soon as the lock is
// held, before any file I/O, so interactive clients get their prompt
// immediately; setup failures silently abort the session and surface as
// ERR_BADREQ on the next APPLY or END_WRITE.
func (c *conn) handleBeginWrite(msg wire.Message) error {
	file := msg.Str("file")
	sidx := msg.Int("sentenceIndex")
	if file == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !c.checkTicket(msg, "WRITE") {
		return c.reply(wire.Reply(wire.ErrNoAuth))
	}
	if c.session.active {
		return c.reply(wire.ReplyMsg(wire.ErrBadRequest, "session-active"))
	}
	if !c.server.locks.Acquire(file, sidx) {
		return c.reply(wire.Reply(wire.ErrLocked))
	}

	c.session = writeSession{active: true, file: file, sentence: sidx}
	if err := c.reply(wire.Reply(wire.StatusOK)); err != nil {
		c.abortSession()
		return err
	}

	c.setupSession(file, sidx)
	return nil
}

// setupSession reads and tokenizes the file after the OK has gone out.
func (c *conn) setupSession(file string, sidx int) {
	body, err := c.server.store.Read(file)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("ss%d begin_write read %s: %v", c.server.cfg.ID, file, err)
			c.abortSession()
			return
		}
		// Missing file: create it empty and edit a one-sentence document.
		// No pre-image is captured, so UNDO restores to empty.
		if err := c.server.store.Create(file); err != nil && !errors.Is(err, store.ErrConflict) {
			logger.Warn("ss%d begin_write create %s: %v", c.server.cfg.ID, file, err)
			c.abortSession()
			return
		}
		if sidx != 0 {
			logger.Debug("ss%d begin_write %s: sentence %d out of range for empty file", c.server.cfg.ID, file, sidx)
			c.abortSession()
			return
		}
		c.session.doc = &doc.Document{Sentences: [][]string{nil}}
		return
	}

	pre := make([]byte, len(body))
	copy(pre, body)

	d := doc.Tokenize(string(body))
	switch {
	case sidx < 0 || sidx > d.NumSentences():
		logger.Debug("ss%d begin_write %s: sentence %d out of range (%d sentences)", c.server.cfg.ID, file, sidx, d.NumSentences())
		c.abortSession()
		return
	case sidx == d.NumSentences():
		d.Grow(sidx)
	}
	c.session.doc = d
	c.session.preImage = pre
}

func (c *conn) handleApply(msg wire.Message) error {
	if !c.session.active || c.session.doc == nil {
		c.abortSession()
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	if !msg.Has("wordIndex") || !msg.Has("content") {
		return c.reply(wire.ReplyMsg(wire.ErrBadRequest, "missing-fields"))
	}
	widx := msg.Int("wordIndex")
	content := doc.Unescape(msg.Str("content"))
	if !c.session.doc.Insert(c.session.sentence, widx, content) {
		return c.reply(wire.ReplyMsg(wire.ErrBadRequest, "invalid-index-or-content"))
	}
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleEndWrite(msg wire.Message) error {
	if !c.session.active || c.session.doc == nil {
		c.abortSession()
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	file, sidx := c.session.file, c.session.sentence

	// Merge-on-commit: re-read what is on disk now and splice only the
	// edited sentence back, so concurrent commits to other sentences of
	// the same file are not lost.
	var merged *doc.Document
	if body, err := c.server.store.Read(file); err == nil {
		merged = doc.Tokenize(string(body))
		merged.SetSentence(sidx, c.session.doc.Sentence(sidx))
	} else {
		merged = c.session.doc
	}

	status := wire.StatusOK
	if err := c.server.store.WriteUndo(file, c.session.preImage); err != nil {
		logger.Warn("ss%d undo snapshot for %s: %v", c.server.cfg.ID, file, err)
	}
	if err := c.server.store.Replace(file, []byte(merged.Compose())); err != nil {
		logger.Error("ss%d commit %s: %v", c.server.cfg.ID, file, err)
		status = wire.ErrInternal
	}

	c.abortSession()
	if status == wire.StatusOK {
		c.server.notifyCommit(file)
	}
	return c.reply(wire.Reply(status))
}
