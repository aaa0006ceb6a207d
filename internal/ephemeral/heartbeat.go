package ephemeral

import (
	"sync"
	"time"

	"github.com/jabolina/go-sync/internal/model"
)

// Heartbeat fires a tick for every tracked document on a fixed interval,
// feeding the dispatch loop's HeartbeatTick msg so it can re-broadcast
// local ephemeral state (spec §4.8). The runtime tracks a doc when the
// façade ensures it (Runtime.EnsureDoc) and untracks it on delete;
// documents created only through peer discovery are not tracked.
type Heartbeat struct {
	interval time.Duration

	mu   sync.Mutex
	docs map[model.DocId]struct{}

	ticks chan model.DocId
	stop  chan struct{}
	once  sync.Once
}

// NewHeartbeat creates a heartbeat that ticks every interval.
func NewHeartbeat(interval time.Duration) *Heartbeat {
	return &Heartbeat{
		interval: interval,
		docs:     make(map[model.DocId]struct{}),
		ticks:    make(chan model.DocId, 64),
		stop:     make(chan struct{}),
	}
}

// Track adds docId to the set of documents that receive a tick.
func (h *Heartbeat) Track(docId model.DocId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.docs[docId] = struct{}{}
}

// Untrack removes docId, e.g. on local delete.
func (h *Heartbeat) Untrack(docId model.DocId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.docs, docId)
}

// Ticks is the channel the runtime's event loop selects on.
func (h *Heartbeat) Ticks() <-chan model.DocId {
	return h.ticks
}

// Run drives the ticker until Stop is called. Intended to be spawned on
// its own goroutine by the runtime's Invoker.
func (h *Heartbeat) Run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.mu.Lock()
			docs := make([]model.DocId, 0, len(h.docs))
			for d := range h.docs {
				docs = append(docs, d)
			}
			h.mu.Unlock()
			for _, d := range docs {
				select {
				case h.ticks <- d:
				case <-h.stop:
					return
				}
			}
		}
	}
}

// Stop ends Run and stops producing ticks.
func (h *Heartbeat) Stop() {
	h.once.Do(func() { close(h.stop) })
}
