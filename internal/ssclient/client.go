// Package ssclient is the naming manager's client for storage server data
// endpoints. Every call dials a fresh connection, performs one exchange,
// and disconnects; the NM never holds SS connections open.
package ssclient

import (
	"github.com/BManav00/Docs/internal/protocol/wire"
)

// Client addresses one storage server's data endpoint.
type Client struct {
	Addr string
}

func (c Client) do(msg wire.Message) (wire.Message, error) {
	return wire.Call(c.Addr, msg)
}

// status runs an exchange whose response carries no payload.
func (c Client) status(msg wire.Message) (wire.Status, error) {
	resp, err := c.do(msg)
	if err != nil {
		return wire.ErrUnavailable, err
	}
	return resp.Status(), nil
}

// Read fetches the full file body using a READ ticket.
func (c Client) Read(file, ticket string) (string, wire.Status, error) {
	resp, err := c.do(wire.Message{"type": "READ", "file": file, "ticket": ticket})
	if err != nil {
		return "", wire.ErrUnavailable, err
	}
	return resp.Str("body"), resp.Status(), nil
}

// ViewCheckpoint fetches a named checkpoint body.
func (c Client) ViewCheckpoint(file, name, ticket string) (string, wire.Status, error) {
	resp, err := c.do(wire.Message{"type": "VIEWCHECKPOINT", "file": file, "name": name, "ticket": ticket})
	if err != nil {
		return "", wire.ErrUnavailable, err
	}
	return resp.Str("body"), resp.Status(), nil
}

// ListCheckpoints enumerates checkpoint names for a file.
func (c Client) ListCheckpoints(file, ticket string) ([]string, wire.Status, error) {
	resp, err := c.do(wire.Message{"type": "LISTCHECKPOINTS", "file": file, "ticket": ticket})
	if err != nil {
		return nil, wire.ErrUnavailable, err
	}
	var names []string
	if raw, ok := resp["checkpoints"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
	}
	return names, resp.Status(), nil
}

// Info fetches size/word/char counts and timestamps for a file.
func (c Client) Info(file, ticket string) (wire.Message, error) {
	return c.do(wire.Message{"type": "INFO", "file": file, "ticket": ticket})
}

// Create makes an empty file.
func (c Client) Create(file string) (wire.Status, error) {
	return c.status(wire.Message{"type": "CREATE", "file": file})
}

// Delete removes a file and its artifacts.
func (c Client) Delete(file string) (wire.Status, error) {
	return c.status(wire.Message{"type": "DELETE", "file": file})
}

// Rename moves a file.
func (c Client) Rename(file, newFile string) (wire.Status, error) {
	return c.status(wire.Message{"type": "RENAME", "file": file, "newFile": newFile})
}

// CreateFolder makes a directory below the server's files root.
func (c Client) CreateFolder(path string) (wire.Status, error) {
	return c.status(wire.Message{"type": "CREATEFOLDER", "path": path})
}

// Put atomically replaces file content (replication sink, no ticket).
func (c Client) Put(file, body string) (wire.Status, error) {
	return c.status(wire.Message{"type": "PUT", "file": file, "body": body})
}

// PutUndo overwrites the undo snapshot (replication sink).
func (c Client) PutUndo(file, body string) (wire.Status, error) {
	return c.status(wire.Message{"type": "PUT_UNDO", "file": file, "body": body})
}

// PutCheckpoint stores a checkpoint body (replication sink).
func (c Client) PutCheckpoint(file, name, body string) (wire.Status, error) {
	return c.status(wire.Message{"type": "PUT_CHECKPOINT", "file": file, "name": name, "body": body})
}
