package server

import (
	"context"
	"io"
	"net"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/protocol/ticket"
	"github.com/BManav00/Docs/internal/protocol/wire"
)

// conn handles one client connection. Requests on a connection are
// strictly ordered; the write session below relies on that.
type conn struct {
	server  *Server
	conn    net.Conn
	session writeSession
}

func (c *conn) serve(ctx context.Context) {
	defer c.conn.Close()
	// Connection teardown is the single release point for the session's
	// lock and buffers.
	defer c.abortSession()

	logger.Debug("ss%d connection from %s", c.server.cfg.ID, c.conn.RemoteAddr())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		msg, err := wire.Recv(c.conn)
		if err != nil {
			if err != io.EOF {
				logger.Debug("ss%d recv error: %v", c.server.cfg.ID, err)
			}
			return
		}
		if err := c.dispatch(msg); err != nil {
			logger.Debug("ss%d send error: %v", c.server.cfg.ID, err)
			return
		}
	}
}

func (c *conn) dispatch(msg wire.Message) error {
	switch msg.Type() {
	case "READ":
		return c.handleRead(msg)
	case "STREAM":
		return c.handleStream(msg)
	case "CREATE":
		return c.handleCreate(msg)
	case "DELETE":
		return c.handleDelete(msg)
	case "CREATEFOLDER":
		return c.handleCreateFolder(msg)
	case "BEGIN_WRITE":
		return c.handleBeginWrite(msg)
	case "APPLY":
		return c.handleApply(msg)
	case "END_WRITE":
		return c.handleEndWrite(msg)
	case "UNDO":
		return c.handleUndo(msg)
	case "REVERT":
		return c.handleRevert(msg)
	case "CHECKPOINT":
		return c.handleCheckpoint(msg)
	case "VIEWCHECKPOINT":
		return c.handleViewCheckpoint(msg)
	case "LISTCHECKPOINTS":
		return c.handleListCheckpoints(msg)
	case "RENAME":
		return c.handleRename(msg)
	case "PUT":
		return c.handlePut(msg)
	case "PUT_UNDO":
		return c.handlePutUndo(msg)
	case "PUT_CHECKPOINT":
		return c.handlePutCheckpoint(msg)
	case "INFO":
		return c.handleInfo(msg)
	default:
		logger.Debug("ss%d unknown request type %q", c.server.cfg.ID, msg.Type())
		return c.reply(wire.Reply(wire.ErrBadRequest))
	}
}

func (c *conn) reply(msg wire.Message) error {
	return wire.Send(c.conn, msg)
}

// checkTicket validates a request's ticket for the given operation against
// this server's identity.
func (c *conn) checkTicket(msg wire.Message, op string) bool {
	return ticket.Validate(msg.Str("ticket"), msg.Str("file"), op, c.server.cfg.ID)
}
