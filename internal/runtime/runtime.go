// Package runtime is the Synchronizer's imperative shell: the effect
// runtime of spec §2 that owns every adapter, executes the Cmds the
// dispatcher returns, and feeds adapter/document/timer events back in as
// Msgs. It plays the role the teacher's core.Peer.poll loop plays for
// go-mcast — a single goroutine driving one reducer — generalized from one
// fixed transport to an open adapter registry.
package runtime

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jabolina/go-sync/adapter"
	"github.com/jabolina/go-sync/internal/dispatch"
	"github.com/jabolina/go-sync/internal/document"
	"github.com/jabolina/go-sync/internal/ephemeral"
	"github.com/jabolina/go-sync/internal/logging"
	"github.com/jabolina/go-sync/internal/metrics"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// DefaultEphemeralHops bounds how many times an ephemeral frame may be
// relayed before being dropped (spec §4.8).
const DefaultEphemeralHops = 1

// DefaultEphemeralTTL is how long a remote peer's ephemeral entry survives
// without a refreshing heartbeat before it's considered stale.
const DefaultEphemeralTTL = 30 * time.Second

// adapterEvent pairs a raw adapter.Event with the adapter that raised it,
// so EventChannelAdded can be bound back to its source.
type adapterEvent struct {
	source adapter.Adapter
	event  adapter.Event
}

// Runtime wires a dispatch.Dispatcher to a set of adapters and runs the
// single-goroutine event loop that is this package's whole reason to
// exist: every Dispatch call happens on that one goroutine, which is what
// lets the dispatcher skip its own locking (spec §5, §9).
type Runtime struct {
	dispatcher *dispatch.Dispatcher
	docs       *document.Store
	log        logging.Logger
	invoker    *Invoker
	batcher    *OutboundBatcher
	channelIds model.ChannelIdSource
	metrics    *metrics.Metrics

	localEph  *ephemeral.LocalStore
	remoteEph *ephemeral.RemoteStore
	heartbeat *ephemeral.Heartbeat

	adapters        map[string]adapter.Adapter
	channelAdapters map[model.ChannelId]adapter.Adapter

	events       chan adapterEvent
	localChanges chan dispatch.LocalChange
	loopRequests chan loopRequest
	stop         chan struct{}
	done         chan struct{}

	onReadyStateChanged func(model.DocId, []model.ReadyState)
	onFindResolved      func(model.DocId, bool)
}

// New creates a Runtime around an already-constructed dispatcher and
// document store. heartbeatInterval is how often ephemeral state is
// re-broadcast (spec §4.8).
func New(d *dispatch.Dispatcher, docs *document.Store, log logging.Logger, heartbeatInterval time.Duration) *Runtime {
	return &Runtime{
		dispatcher:      d,
		docs:            docs,
		log:             log,
		invoker:         NewInvoker(),
		batcher:         NewOutboundBatcher(),
		localEph:        ephemeral.NewLocalStore(),
		remoteEph:       ephemeral.NewRemoteStore(DefaultEphemeralTTL),
		heartbeat:       ephemeral.NewHeartbeat(heartbeatInterval),
		adapters:        make(map[string]adapter.Adapter),
		channelAdapters: make(map[model.ChannelId]adapter.Adapter),
		events:          make(chan adapterEvent, 64),
		localChanges:    make(chan dispatch.LocalChange, 64),
		loopRequests:    make(chan loopRequest),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// SetMetrics attaches a Prometheus instrumentation bundle. Optional; a
// Runtime with none attached simply skips every recording call.
func (r *Runtime) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// OnReadyStateChanged registers the façade's hook for spec §4.9's
// ready-state-changed notifications.
func (r *Runtime) OnReadyStateChanged(cb func(model.DocId, []model.ReadyState)) {
	r.onReadyStateChanged = cb
}

// OnFindResolved registers the façade's hook for a local find's resolution
// (found or unavailable).
func (r *Runtime) OnFindResolved(cb func(model.DocId, bool)) {
	r.onFindResolved = cb
}

// RegisterAdapter wires an adapter into the runtime: its Events() channel is
// drained on a dedicated goroutine for the lifetime of the runtime.
func (r *Runtime) RegisterAdapter(a adapter.Adapter) {
	r.adapters[a.Id()] = a
	r.invoker.Spawn(func() {
		for ev := range a.Events() {
			select {
			case r.events <- adapterEvent{source: a, event: ev}:
			case <-r.stop:
				return
			}
		}
	})
}

// LocalEphemeralStore exposes the façade's write path for its own presence/
// cursor state (spec §4.8, §6's "exposes ephemeral stores").
func (r *Runtime) LocalEphemeralStore() *ephemeral.LocalStore {
	return r.localEph
}

// RemoteEphemeralStore exposes the façade's read path for other peers'
// live presence/cursor state.
func (r *Runtime) RemoteEphemeralStore() *ephemeral.RemoteStore {
	return r.remoteEph
}

// EnsureDoc posts a DocEnsure request and runs it on the dispatch
// goroutine, used by the façade's repo.get.
func (r *Runtime) EnsureDoc(docId model.DocId, mergeable bool) {
	r.runOnLoop(func() {
		r.execute(r.dispatcher.Dispatch(dispatch.DocEnsure{DocId: docId, Mergeable: mergeable}))
		r.heartbeat.Track(docId)
	})
}

// DeleteDoc posts a DocDelete request, used by the façade's repo.delete.
func (r *Runtime) DeleteDoc(docId model.DocId) {
	r.runOnLoop(func() {
		r.execute(r.dispatcher.Dispatch(dispatch.DocDelete{DocId: docId}))
		r.heartbeat.Untrack(docId)
		r.localEph.Clear(docId)
	})
}

// loopRequest carries an arbitrary closure onto the run-loop goroutine and
// blocks the caller until it has run, letting façade calls made from other
// goroutines still observe the single-writer invariant.
type loopRequest struct {
	fn   func()
	done chan struct{}
}

func (r *Runtime) runOnLoop(fn func()) {
	req := loopRequest{fn: fn, done: make(chan struct{})}
	select {
	case r.loopRequests <- req:
	case <-r.done:
		return
	}
	select {
	case <-req.done:
	case <-r.done:
	}
}

// Run drives the single event loop for the lifetime of the runtime,
// blocking until Stop is called; waiting for the spawned goroutines is
// left to Stop. It must be called from its own goroutine by the caller.
func (r *Runtime) Run() {
	defer close(r.done)
	ticks := r.heartbeat.Ticks()
	r.invoker.Spawn(r.heartbeat.Run)

	for {
		select {
		case <-r.stop:
			return
		case req := <-r.loopRequests:
			req.fn()
			close(req.done)
		case ev := <-r.events:
			r.handleAdapterEvent(ev)
		case lc := <-r.localChanges:
			r.execute(r.dispatcher.Dispatch(lc))
		case docId := <-ticks:
			r.execute(r.dispatcher.Dispatch(dispatch.HeartbeatTick{DocId: docId}))
		}
	}
}

// Stop ends the run loop, stops every registered adapter and the
// heartbeat, and waits for every spawned goroutine to finish.
func (r *Runtime) Stop() {
	r.heartbeat.Stop()
	close(r.stop)
	<-r.done
	for _, a := range r.adapters {
		a.Stop()
	}
	r.invoker.Wait()
}

func (r *Runtime) handleAdapterEvent(ev adapterEvent) {
	switch ev.event.Kind {
	case adapter.EventChannelAdded:
		channelId := r.channelIds.Next()
		pending := ev.event.Pending
		pending.ChannelId = channelId
		r.channelAdapters[channelId] = ev.source
		ev.source.Bind(channelId, pending)
		r.metrics.ChannelAdded()
		r.execute(r.dispatcher.Dispatch(dispatch.ChannelAdded{Channel: pending}))

	case adapter.EventChannelEstablish:
		r.execute(r.dispatcher.Dispatch(dispatch.ChannelEstablish{
			ChannelId:      ev.event.ChannelId,
			RemoteIdentity: ev.event.RemoteIdentity,
		}))

	case adapter.EventChannelReceive:
		r.metrics.MessageReceived(ev.event.Message.Type())
		r.execute(r.dispatcher.Dispatch(dispatch.ChannelReceive{
			ChannelId: ev.event.ChannelId,
			Message:   ev.event.Message,
		}))

	case adapter.EventChannelRemoved:
		delete(r.channelAdapters, ev.event.ChannelId)
		r.metrics.ChannelRemoved()
		r.execute(r.dispatcher.Dispatch(dispatch.ChannelRemoved{ChannelId: ev.event.ChannelId}))

	default:
		r.log.Warnf("unknown adapter event kind %d", ev.event.Kind)
	}
}

// execute runs every Cmd the dispatcher returned, then flushes whatever
// the outbound batcher accumulated during this turn (spec §4.7).
func (r *Runtime) execute(cmds []dispatch.Cmd) {
	for _, c := range cmds {
		r.executeOne(c)
	}
	r.flushOutbound()
}

func (r *Runtime) executeOne(c dispatch.Cmd) {
	switch cmd := c.(type) {
	case dispatch.SendCmd:
		r.batcher.Enqueue(cmd.ToChannelIds, cmd.Message)

	case dispatch.SubscribeLocalChangesCmd:
		r.subscribeLocalChanges(cmd.DocId)

	case dispatch.EmitReadyStateChangedCmd:
		if r.onReadyStateChanged != nil {
			r.onReadyStateChanged(cmd.DocId, cmd.States)
		}

	case dispatch.ApplyEphemeralCmd:
		r.applyEphemeral(cmd)

	case dispatch.BroadcastEphemeralCmd:
		r.broadcastEphemeral(cmd)

	case dispatch.RemoveEphemeralPeerCmd:
		r.remoteEph.RemovePeer(cmd.PeerId)

	case dispatch.ResolveFindCmd:
		if r.onFindResolved != nil {
			r.onFindResolved(cmd.DocId, cmd.Unavailable)
		}

	default:
		r.log.Warnf("unknown cmd %#v", c)
	}
}

// subscribeLocalChanges wires a document's Subscribe callback to feed the
// run loop, but only for genuinely local edits: import-triggered
// propagation runs inline inside the sync/update handlers (see
// internal/dispatch/sync.go's importIntoDoc), since only that call site
// knows which channel to exclude from the rebroadcast.
func (r *Runtime) subscribeLocalChanges(docId model.DocId) {
	handle, ok := r.docs.Get(docId)
	if !ok {
		return
	}
	disposer := handle.Subscribe(func(source model.ChangeSource) {
		if source != model.ChangeLocal {
			return
		}
		select {
		case r.localChanges <- dispatch.LocalChange{DocId: docId, Source: model.ChangeLocal}:
		case <-r.done:
		}
	})
	if state, ok := r.dispatcher.Model().Documents[docId]; ok {
		state.SetLocalChangeSubscription(disposer)
	}
}

// applyEphemeral records the received frames into the remote store and, if
// hops remain, relays the frame onward to every other established channel
// (spec §4.8).
func (r *Runtime) applyEphemeral(cmd dispatch.ApplyEphemeralCmd) {
	r.remoteEph.Apply(cmd.DocId, cmd.Stores, time.Now())

	if cmd.HopsRemaining <= 0 {
		return
	}
	var toChannelIds []model.ChannelId
	for _, ch := range r.dispatcher.Model().EstablishedChannels() {
		if ch.ChannelId == cmd.ExcludeChannel {
			continue
		}
		toChannelIds = append(toChannelIds, ch.ChannelId)
	}
	if len(toChannelIds) == 0 {
		return
	}
	r.batcher.Enqueue(toChannelIds, protocol.Ephemeral{
		DocId:         cmd.DocId,
		HopsRemaining: cmd.HopsRemaining - 1,
		Stores:        cmd.Stores,
	})
}

// broadcastEphemeral sends our own current ephemeral state for a document
// to one channel, used both for the initial-sync-only broadcast and the
// periodic heartbeat.
func (r *Runtime) broadcastEphemeral(cmd dispatch.BroadcastEphemeralCmd) {
	frames := r.localEph.Snapshot(cmd.DocId, r.dispatcher.Model().Identity.PeerId)
	if len(frames) == 0 {
		return
	}
	r.batcher.Enqueue([]model.ChannelId{cmd.ChannelId}, protocol.Ephemeral{
		DocId:         cmd.DocId,
		HopsRemaining: DefaultEphemeralHops,
		Stores:        frames,
	})
	r.metrics.HeartbeatSent()
}

// flushOutbound drains the batcher and sends each envelope through the
// adapter that owns its channel.
func (r *Runtime) flushOutbound() {
	for _, envelope := range r.batcher.Flush() {
		if batch, ok := envelope.Message.(protocol.Batch); ok {
			r.metrics.BatchFlushed(len(batch.Messages))
		} else {
			r.metrics.BatchFlushed(1)
		}
		r.metrics.MessageSent(envelope.Message.Type())

		for _, channelId := range envelope.ToChannelIds {
			a, ok := r.channelAdapters[channelId]
			if !ok {
				r.log.Warnf("no adapter for channel %v, dropping send", channelId)
				continue
			}
			single := envelope
			single.ToChannelIds = []model.ChannelId{channelId}
			if err := a.Send(single); err != nil {
				r.log.Errorf("send on channel %v failed: %v", channelId, errors.Wrap(err, "adapter send"))
			}
		}
	}
}
