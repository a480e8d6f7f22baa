package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/tailored-agentic-units/ark/observability"
)

// writer serializes physical writes for one document. At most one write is
// in flight and at most one payload waits behind it; a newer payload replaces
// the waiting one and its callers join the same shared completion.
type writer struct {
	fs       afero.Fs
	path     string
	staging  string
	mode     os.FileMode
	observer observability.Observer

	mu      sync.Mutex
	writing bool
	cycle   string
	pending []byte
	queued  bool
	next    *Completion
}

// submit starts a physical write for data, or parks data in the pending slot
// when a write is already running.
func (w *writer) submit(data []byte) *Completion {
	w.mu.Lock()
	if w.writing {
		w.pending = data
		w.queued = true
		if w.next == nil {
			w.next = newCompletion()
		}
		c, cycle := w.next, w.cycle
		w.mu.Unlock()

		w.emit(EventSaveCoalesced, observability.LevelVerbose, map[string]any{
			"cycle": cycle,
			"bytes": len(data),
		})
		return c
	}

	w.writing = true
	cycle := newCycleID()
	w.cycle = cycle
	w.mu.Unlock()

	c := newCompletion()
	go w.drain(cycle, data, c)
	return c
}

// drain performs the write for data, then keeps writing whatever was parked
// in the pending slot until the slot stays empty.
func (w *writer) drain(cycle string, data []byte, c *Completion) {
	for {
		c.resolve(w.commit(cycle, data))

		w.mu.Lock()
		if !w.queued {
			w.writing = false
			w.cycle = ""
			w.mu.Unlock()
			return
		}
		data, c = w.pending, w.next
		w.pending, w.queued, w.next = nil, false, nil
		cycle = newCycleID()
		w.cycle = cycle
		w.mu.Unlock()
	}
}

// commit stages data next to the document and renames it into place.
func (w *writer) commit(cycle string, data []byte) error {
	start := time.Now()
	w.emit(EventWriteStart, observability.LevelVerbose, map[string]any{
		"cycle": cycle,
		"bytes": len(data),
	})

	err := w.stage(data)
	if err == nil {
		err = w.fs.Rename(w.staging, w.path)
	}
	if err != nil {
		_ = w.fs.Remove(w.staging)
		err = fmt.Errorf("%w: %s: %w", ErrWriteFailed, w.path, err)
		w.emit(EventWriteError, observability.LevelError, map[string]any{
			"cycle": cycle,
			"error": err.Error(),
		})
		return err
	}

	w.emit(EventWriteComplete, observability.LevelVerbose, map[string]any{
		"cycle":    cycle,
		"bytes":    len(data),
		"duration": time.Since(start).String(),
	})
	return nil
}

func (w *writer) stage(data []byte) error {
	f, err := w.fs.OpenFile(w.staging, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, w.mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *writer) emit(typ observability.EventType, level observability.Level, data map[string]any) {
	data["path"] = w.path
	w.observer.OnEvent(context.Background(), observability.NewEvent(typ, level, "store.writer", data))
}

func newCycleID() string {
	return uuid.Must(uuid.NewV7()).String()
}
