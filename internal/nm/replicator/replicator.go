// Package replicator runs the naming manager's asynchronous replication
// workers. Tasks are fire-and-forget: they carry everything they need by
// value, touch no shared state beyond the outstanding-task counter, and
// log failures instead of surfacing them to clients.
package replicator

import (
	"sync"

	"github.com/google/uuid"

	"github.com/BManav00/Docs/internal/logger"
	"github.com/BManav00/Docs/internal/nm/registry"
	"github.com/BManav00/Docs/internal/protocol/ticket"
	"github.com/BManav00/Docs/internal/ssclient"
)

// Replicator fans NM-side copies out to replica storage servers.
type Replicator struct {
	reg *registry.Registry

	mu     sync.Mutex
	queued int
}

// New returns a replicator resolving endpoints through reg.
func New(reg *registry.Registry) *Replicator {
	return &Replicator{reg: reg}
}

// Queued returns the number of outstanding tasks, exposed via STATS.
func (r *Replicator) Queued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queued
}

// spawn runs fn on its own goroutine, bracketed by the queue counter.
func (r *Replicator) spawn(kind, file string, fn func(taskID string)) {
	taskID := uuid.NewString()
	r.mu.Lock()
	r.queued++
	r.mu.Unlock()
	go func() {
		defer func() {
			r.mu.Lock()
			r.queued--
			r.mu.Unlock()
		}()
		logger.Debug("repl task %s start kind=%s file=%s", taskID, kind, file)
		fn(taskID)
	}()
}

func (r *Replicator) client(ssid int) (ssclient.Client, bool) {
	addr, ok := r.reg.DataAddr(ssid)
	if !ok {
		return ssclient.Client{}, false
	}
	return ssclient.Client{Addr: addr}, true
}

// SchedulePut copies the file's current body from the primary to the
// target.
func (r *Replicator) SchedulePut(file string, primary, target int) {
	r.spawn("PUT", file, func(taskID string) {
		src, ok := r.client(primary)
		if !ok {
			logger.Warn("repl task %s: primary ss%d unresolvable", taskID, primary)
			return
		}
		tkt := ticket.Build(file, "READ", primary, ticket.DefaultTTL).String()
		body, status, err := src.Read(file, tkt)
		if err != nil || status != "OK" {
			logger.Warn("repl task %s: read %s from ss%d failed: status=%s err=%v", taskID, file, primary, status, err)
			return
		}
		dst, ok := r.client(target)
		if !ok {
			logger.Warn("repl task %s: target ss%d unresolvable", taskID, target)
			return
		}
		if status, err := dst.Put(file, body); err != nil || status != "OK" {
			logger.Warn("repl task %s: put %s to ss%d failed: status=%s err=%v", taskID, file, target, status, err)
			return
		}
		logger.Info("replicated PUT %s -> ss%d", file, target)
	})
}

// ScheduleCheckpoint copies one named checkpoint from the primary to the
// target.
func (r *Replicator) ScheduleCheckpoint(file, name string, primary, target int) {
	r.spawn("PUT_CHECKPOINT", file, func(taskID string) {
		src, ok := r.client(primary)
		if !ok {
			return
		}
		tkt := ticket.Build(file, "VIEWCHECKPOINT", primary, ticket.DefaultTTL).String()
		body, status, err := src.ViewCheckpoint(file, name, tkt)
		if err != nil || status != "OK" {
			logger.Warn("repl task %s: view checkpoint %s@%s failed: status=%s err=%v", taskID, file, name, status, err)
			return
		}
		dst, ok := r.client(target)
		if !ok {
			return
		}
		if status, err := dst.PutCheckpoint(file, name, body); err != nil || status != "OK" {
			logger.Warn("repl task %s: put checkpoint %s@%s to ss%d failed: status=%s err=%v", taskID, file, name, target, status, err)
			return
		}
		logger.Info("replicated CHECKPOINT %s@%s -> ss%d", file, name, target)
	})
}

// ScheduleUndo copies the undo snapshot, addressed on the primary through
// the pseudo-path "../undo/<file>.undo" routed through READ. The ticket is
// built for the pseudo-path so it validates at the storage server.
func (r *Replicator) ScheduleUndo(file string, primary, target int) {
	r.spawn("PUT_UNDO", file, func(taskID string) {
		src, ok := r.client(primary)
		if !ok {
			return
		}
		undoPath := "../undo/" + file + ".undo"
		tkt := ticket.Build(undoPath, "READ", primary, ticket.DefaultTTL).String()
		body, status, err := src.Read(undoPath, tkt)
		if err != nil || status != "OK" {
			// No snapshot on the primary is the common case; nothing to copy.
			logger.Debug("repl task %s: undo for %s not copied: status=%s err=%v", taskID, file, status, err)
			return
		}
		dst, ok := r.client(target)
		if !ok {
			return
		}
		if status, err := dst.PutUndo(file, body); err != nil || status != "OK" {
			logger.Warn("repl task %s: put undo %s to ss%d failed: status=%s err=%v", taskID, file, target, status, err)
			return
		}
		logger.Info("replicated UNDO %s -> ss%d", file, target)
	})
}

// ScheduleCmd issues a raw CREATE, DELETE, or RENAME on the target
// without any body transfer.
func (r *Replicator) ScheduleCmd(cmdType, file, newFile string, target int) {
	r.spawn(cmdType, file, func(taskID string) {
		dst, ok := r.client(target)
		if !ok {
			return
		}
		var status any
		var err error
		switch cmdType {
		case "CREATE":
			status, err = dst.Create(file)
		case "DELETE":
			status, err = dst.Delete(file)
		case "RENAME":
			status, err = dst.Rename(file, newFile)
		default:
			logger.Warn("repl task %s: unknown command %q", taskID, cmdType)
			return
		}
		if err != nil {
			logger.Warn("repl task %s: %s %s on ss%d failed: %v", taskID, cmdType, file, target, err)
			return
		}
		logger.Info("replicated %s %s -> ss%d (status=%v)", cmdType, file, target, status)
	})
}

// ScheduleResync brings a rejoining replica up to date for one file: the
// current body, the undo snapshot if any, and every named checkpoint
// currently stored on the primary.
func (r *Replicator) ScheduleResync(file string, primary, target int) {
	r.SchedulePut(file, primary, target)
	r.ScheduleUndo(file, primary, target)
	r.spawn("RESYNC_CHECKPOINTS", file, func(taskID string) {
		src, ok := r.client(primary)
		if !ok {
			return
		}
		tkt := ticket.Build(file, "LISTCHECKPOINTS", primary, ticket.DefaultTTL).String()
		names, status, err := src.ListCheckpoints(file, tkt)
		if err != nil || status != "OK" {
			logger.Debug("repl task %s: list checkpoints for %s failed: status=%s err=%v", taskID, file, status, err)
			return
		}
		for _, name := range names {
			r.ScheduleCheckpoint(file, name, primary, target)
		}
	})
}
