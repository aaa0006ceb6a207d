// Package repo implements the Handle/Repo façade of spec §4.10: the only
// surface an embedder talks to directly. It owns the dispatcher and
// runtime internally, exposing the minimal contract the spec names —
// get/delete/reset/waitForSync — and nothing about channels, messages, or
// Cmds leaks through it.
package repo

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jabolina/go-sync/adapter"
	"github.com/jabolina/go-sync/internal/dispatch"
	"github.com/jabolina/go-sync/internal/document"
	"github.com/jabolina/go-sync/internal/logging"
	"github.com/jabolina/go-sync/internal/metrics"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/permission"
	"github.com/jabolina/go-sync/internal/runtime"
)

// ErrSchemaMismatch is returned by Get when docId is already cached under a
// different schema (spec §7's "schema mismatch thrown synchronously").
var ErrSchemaMismatch = errors.New("schema mismatch")

// ErrUnavailable is returned by WaitForSync when its context expires before
// any channel of the requested kind reaches ready-state synced (spec §7).
var ErrUnavailable = errors.New("wait for sync: unavailable")

// Schema is a pure-equality shape description, per spec §4.10: "a pure
// equality check on the serialized shape description; no runtime
// reflection of the target language's types is required." Any comparable
// value works — callers typically pass a struct-tag string or a small
// const.
type Schema interface{}

type cachedDoc struct {
	schema Schema
	doc    *Doc
}

type waiter struct {
	kind model.ChannelKind
	done chan struct{}
	once sync.Once
}

func (w *waiter) resolve() {
	w.once.Do(func() { close(w.done) })
}

// Repo is the embedder-facing façade: createRepo({identity, adapters,
// rules}) in spec.md's surface naming.
type Repo struct {
	log     logging.Logger
	metrics *metrics.Metrics

	docs       *document.Store
	dispatcher *dispatch.Dispatcher
	runtime    *runtime.Runtime

	mu          sync.Mutex
	cachedDocs  map[model.DocId]*cachedDoc
	readyStates map[model.DocId][]model.ReadyState
	waiters     map[model.DocId][]*waiter
}

// New creates a Repo for identity, with rules governing visibility/
// mutability and factory building fresh document handles for docs the
// engine hasn't seen before. heartbeatInterval controls the ephemeral
// subsystem's re-broadcast cadence (spec §4.8).
func New(identity model.Identity, rules permission.Rules, factory document.Factory, log logging.Logger, heartbeatInterval time.Duration) *Repo {
	docs := document.NewStore(factory)
	d := dispatch.New(identity, docs, rules, log)
	rt := runtime.New(d, docs, log, heartbeatInterval)

	r := &Repo{
		log:         log,
		docs:        docs,
		dispatcher:  d,
		runtime:     rt,
		cachedDocs:  make(map[model.DocId]*cachedDoc),
		readyStates: make(map[model.DocId][]model.ReadyState),
		waiters:     make(map[model.DocId][]*waiter),
	}
	rt.OnReadyStateChanged(r.handleReadyStateChanged)
	rt.OnFindResolved(r.handleFindResolved)
	return r
}

// SetMetrics attaches a Prometheus instrumentation bundle shared with the
// underlying runtime.
func (r *Repo) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
	r.runtime.SetMetrics(m)
}

// reportWaitersLocked recomputes the total pending-waiter count across
// every document and reports it. Caller must hold r.mu.
func (r *Repo) reportWaitersLocked() {
	total := 0
	for _, ws := range r.waiters {
		total += len(ws)
	}
	r.metrics.SetPendingWaiters(total)
}

// RegisterAdapter wires an adapter's lifecycle into the repo before Start
// is called (spec §9's "registry maps adapterId → AdapterHandle").
func (r *Repo) RegisterAdapter(a adapter.Adapter) {
	r.runtime.RegisterAdapter(a)
}

// Start runs the effect runtime's event loop on a new goroutine.
func (r *Repo) Start() {
	go r.runtime.Run()
}

// Stop shuts down the event loop, every adapter, and waits for every
// spawned goroutine to return.
func (r *Repo) Stop() {
	r.runtime.Stop()
}

// Get returns (creating and loading if necessary) the cached Doc for
// docId. A second call with the same docId must pass an equal schema or
// ErrSchemaMismatch is returned synchronously (spec §4.10, §7).
func (r *Repo) Get(docId model.DocId, schema Schema) (*Doc, error) {
	r.mu.Lock()
	if cached, ok := r.cachedDocs[docId]; ok {
		r.mu.Unlock()
		if !reflect.DeepEqual(cached.schema, schema) {
			return nil, errors.Wrapf(ErrSchemaMismatch, "document %v", docId)
		}
		return cached.doc, nil
	}
	r.mu.Unlock()

	r.runtime.EnsureDoc(docId, true)
	handle, _ := r.docs.EnsureLoaded(docId)

	doc := &Doc{docId: docId, schema: schema, handle: handle, repo: r}
	r.mu.Lock()
	r.cachedDocs[docId] = &cachedDoc{schema: schema, doc: doc}
	r.mu.Unlock()
	return doc, nil
}

// Delete purges docId's DocState and façade cache. Local only; never
// propagated (spec §4.10, §1's non-goal on tombstones).
func (r *Repo) Delete(docId model.DocId) {
	r.runtime.DeleteDoc(docId)
	r.mu.Lock()
	delete(r.cachedDocs, docId)
	delete(r.readyStates, docId)
	for _, w := range r.waiters[docId] {
		w.resolve()
	}
	delete(r.waiters, docId)
	r.reportWaitersLocked()
	r.mu.Unlock()
}

// Reset clears every façade cache and underlying DocState while keeping
// registered adapters live (spec §4.10).
func (r *Repo) Reset() {
	r.mu.Lock()
	ids := make([]model.DocId, 0, len(r.cachedDocs))
	for id := range r.cachedDocs {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.Delete(id)
	}
}

// WaitForSync blocks until at least one established channel of kind has
// ready-state synced for docId, or ctx is done. Expiration resolves with
// ErrUnavailable without touching engine state (spec §7, §9's pending-
// waiter registry keyed by (docId, kind)).
func (r *Repo) WaitForSync(ctx context.Context, docId model.DocId, kind model.ChannelKind) error {
	r.mu.Lock()
	if anySynced(r.readyStates[docId], kind) {
		r.mu.Unlock()
		return nil
	}
	w := &waiter{kind: kind, done: make(chan struct{})}
	r.waiters[docId] = append(r.waiters[docId], w)
	r.reportWaitersLocked()
	r.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		r.removeWaiterLocked(docId, w)
		r.reportWaitersLocked()
		r.mu.Unlock()
		return ErrUnavailable
	}
}

// ReadyStates returns the last known ready-state set for docId: one
// loading entry per not-yet-established channel and one entry per
// established channel the document is visible on (spec §4.9). The returned
// slice is a snapshot; callers must not mutate it.
func (r *Repo) ReadyStates(docId model.DocId) []model.ReadyState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ReadyState(nil), r.readyStates[docId]...)
}

func (r *Repo) handleReadyStateChanged(docId model.DocId, states []model.ReadyState) {
	r.mu.Lock()
	r.readyStates[docId] = states
	var remaining []*waiter
	for _, w := range r.waiters[docId] {
		if anySynced(states, w.kind) {
			w.resolve()
		} else {
			remaining = append(remaining, w)
		}
	}
	r.waiters[docId] = remaining
	r.reportWaitersLocked()
	r.mu.Unlock()
}

func (r *Repo) handleFindResolved(docId model.DocId, unavailable bool) {
	if unavailable {
		r.log.Debugf("document %v is unavailable from every visible peer", docId)
	}
}

func (r *Repo) removeWaiterLocked(docId model.DocId, target *waiter) {
	waiters := r.waiters[docId]
	out := waiters[:0]
	for _, w := range waiters {
		if w != target {
			out = append(out, w)
		}
	}
	r.waiters[docId] = out
}

func anySynced(states []model.ReadyState, kind model.ChannelKind) bool {
	for _, s := range states {
		if s.Kind == kind && s.Status == model.ReadySynced {
			return true
		}
	}
	return false
}
