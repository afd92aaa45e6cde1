package server

import (
	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/protocol/wire"
)

// handleClientHello admits a user session. A name with a session already
// live is rejected and the connection dropped, enforcing at most one
// active session per user.
func (c *conn) handleClientHello(msg wire.Message) error {
	user := msg.Str("user")
	if user == "" {
		logger.Info("nm: client hello (user unknown)")
		return c.reply(wire.Reply(wire.StatusOK))
	}
	logger.Info("nm: client hello from %s", user)
	if c.server.st.UserActive(user) {
		if err := c.reply(wire.ReplyMsg(wire.ErrConflict, "user-already-active")); err != nil {
			return err
		}
		return errCloseConn
	}
	c.server.st.SetUserActive(user, true)
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}

// handleSetActive serves both LOGOUT (always inactive) and
// USER_SET_ACTIVE (explicit flag).
func (c *conn) handleSetActive(msg wire.Message) error {
	user := msg.Str("user")
	if user == "" {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	active := false
	if msg.Type() == "USER_SET_ACTIVE" {
		active = truthy(msg, "active")
	}
	c.server.st.SetUserActive(user, active)
	c.server.saveState()
	return c.reply(wire.Reply(wire.StatusOK))
}

func (c *conn) handleListUsers(msg wire.Message) error {
	active := c.server.st.ActiveUsers()
	activeSet := make(map[string]bool, len(active))
	for _, u := range active {
		activeSet[u] = true
	}
	inactive := []string{}
	for _, u := range c.server.st.Users() {
		if !activeSet[u] {
			inactive = append(inactive, u)
		}
	}
	return c.reply(wire.OKReply(wire.Message{
		"active":   active,
		"inactive": inactive,
	}))
}
