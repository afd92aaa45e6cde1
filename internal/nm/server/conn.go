package server

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/nm/state"
	"github.com/BManav00/Docs/internal/protocol/wire"
)

// errCloseConn asks the serve loop to drop the connection after the
// current reply has been sent (e.g. a rejected CLIENT_HELLO).
var errCloseConn = errors.New("close connection")

type conn struct {
	server *Server
	conn   net.Conn
}

func (c *conn) serve(ctx context.Context) {
	defer c.conn.Close()
	logger.Debug("nm connection from %s", c.conn.RemoteAddr())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		msg, err := wire.Recv(c.conn)
		if err != nil {
			if err != io.EOF {
				logger.Debug("nm recv error: %v", err)
			}
			return
		}
		if err := c.dispatch(msg); err != nil {
			if err != errCloseConn {
				logger.Debug("nm handler error: %v", err)
			}
			return
		}
	}
}

func (c *conn) dispatch(msg wire.Message) error {
	if !msg.Has("type") {
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
	switch msg.Type() {
	case "SS_REGISTER":
		return c.handleSSRegister(msg)
	case "SS_HEARTBEAT":
		return c.handleSSHeartbeat(msg)
	case "SS_COMMIT":
		return c.handleSSCommit(msg)
	case "SS_CHECKPOINT":
		return c.handleSSCheckpoint(msg)
	case "LOOKUP":
		return c.handleLookup(msg)
	case "CREATE":
		return c.handleCreate(msg)
	case "DELETE":
		return c.handleDelete(msg)
	case "MIGRATE":
		return c.handleMigrate(msg)
	case "RENAME":
		return c.handleRename(msg)
	case "CREATEFOLDER":
		return c.handleCreateFolder(msg)
	case "VIEWFOLDER":
		return c.handleViewFolder(msg)
	case "MOVE":
		return c.handleMove(msg)
	case "ADDACCESS":
		return c.handleAddAccess(msg)
	case "REMACCESS":
		return c.handleRemAccess(msg)
	case "VIEWREQUESTS":
		return c.handleViewRequests(msg)
	case "REQUEST_ACCESS":
		return c.handleRequestAccess(msg)
	case "APPROVE_ACCESS":
		return c.handleApproveAccess(msg)
	case "DENY_ACCESS":
		return c.handleDenyAccess(msg)
	case "CLIENT_HELLO":
		return c.handleClientHello(msg)
	case "LOGOUT", "USER_SET_ACTIVE":
		return c.handleSetActive(msg)
	case "LIST_USERS":
		return c.handleListUsers(msg)
	case "LIST_SS":
		return c.handleListSS(msg)
	case "STATS":
		return c.handleStats(msg)
	case "LISTTRASH":
		return c.handleListTrash(msg)
	case "RESTORE":
		return c.handleRestore(msg)
	case "EMPTYTRASH":
		return c.handleEmptyTrash(msg)
	case "VIEW":
		return c.handleView(msg)
	case "INFO":
		return c.handleInfo(msg)
	case "EXEC":
		return c.handleExec(msg)
	default:
		logger.Debug("nm unknown request type %q", msg.Type())
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
}

func (c *conn) reply(msg wire.Message) error {
	return wire.Send(c.conn, msg)
}

// peerHost returns the remote IP of this connection, the only trusted
// source for a storage server's address.
func (c *conn) peerHost() string {
	host, _, err := net.SplitHostPort(c.conn.RemoteAddr().String())
	if err != nil {
		return "127.0.0.1"
	}
	return host
}

// userOf returns the self-asserted requester, defaulting to the reserved
// anonymous identity.
func userOf(msg wire.Message) string {
	if u := msg.Str("user"); u != "" {
		return u
	}
	return state.Anonymous
}

// truthy reads a flag that clients may send as a JSON bool or an int.
func truthy(msg wire.Message, key string) bool {
	switch v := msg[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}
