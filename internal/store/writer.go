package store

import (
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/campfire-chat/campfire/internal/logger"
	"github.com/campfire-chat/campfire/internal/metrics"
)

// writer serializes overwrites of one snapshot key. At most one write
// is in flight; enqueueing while a write runs parks the newest payload
// in the pending slot and the writer picks it up on completion, so
// rapid successive saves coalesce instead of interleaving.
type writer struct {
	db  *pebble.DB
	key []byte

	mu       sync.Mutex
	cond     *sync.Cond
	inflight bool
	pending  []byte
}

func newWriter(db *pebble.DB, key []byte) *writer {
	w := &writer{db: db, key: key}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *writer) enqueue(data []byte) {
	w.mu.Lock()
	if w.inflight {
		w.pending = data
		w.mu.Unlock()
		return
	}
	w.inflight = true
	w.mu.Unlock()
	go w.run(data)
}

func (w *writer) run(data []byte) {
	for {
		if err := w.db.Set(w.key, data, pebble.Sync); err != nil {
			// In-memory state stays authoritative; the next save retries.
			logger.Error("snapshot_write_failed", "key", string(w.key), "error", err)
			metrics.SnapshotFailures.Inc()
		} else {
			metrics.SnapshotSaves.Inc()
		}
		w.mu.Lock()
		if w.pending != nil {
			data = w.pending
			w.pending = nil
			w.mu.Unlock()
			continue
		}
		w.inflight = false
		w.cond.Broadcast()
		w.mu.Unlock()
		return
	}
}

// wait blocks until the writer is idle.
func (w *writer) wait() {
	w.mu.Lock()
	for w.inflight {
		w.cond.Wait()
	}
	w.mu.Unlock()
}
