package dispatch

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// Cmd is the tagged union of side effects the dispatcher asks the runtime
// to perform. The dispatcher never performs them itself.
type Cmd interface {
	cmd()
}

// SendCmd enqueues a protocol message to one or more channels on the
// outbound batcher (spec §4.7). The dispatcher emits one SendCmd per
// logical message; batching into a single wire frame happens downstream.
type SendCmd struct {
	ToChannelIds []model.ChannelId
	Message      protocol.Message
}

func (SendCmd) cmd() {}

// SubscribeLocalChangesCmd asks the runtime to wire doc.Subscribe for a
// newly created DocState, feeding LocalChange msgs back into the dispatch
// loop.
type SubscribeLocalChangesCmd struct {
	DocId model.DocId
}

func (SubscribeLocalChangesCmd) cmd() {}

// EmitReadyStateChangedCmd asks the runtime to publish a ready-state
// transition to the façade (spec §4.9).
type EmitReadyStateChangedCmd struct {
	DocId   model.DocId
	States  []model.ReadyState
}

func (EmitReadyStateChangedCmd) cmd() {}

// ApplyEphemeralCmd asks the runtime to apply received ephemeral bytes into
// the (timed) ephemeral store for a peer/namespace, and to relay it onward
// if HopsRemaining allows (spec §4.8).
type ApplyEphemeralCmd struct {
	DocId         model.DocId
	HopsRemaining int
	Stores        []protocol.EphemeralStoreFrame

	// ExcludeChannel is the channel the ephemeral frame arrived on, so
	// relay doesn't echo back to the sender.
	ExcludeChannel model.ChannelId
}

func (ApplyEphemeralCmd) cmd() {}

// BroadcastEphemeralCmd asks the runtime to send our current ephemeral
// store state for a document to one channel — the initial-sync-only side
// effect of spec §4.5.
type BroadcastEphemeralCmd struct {
	DocId     model.DocId
	ChannelId model.ChannelId
}

func (BroadcastEphemeralCmd) cmd() {}

// RemoveEphemeralPeerCmd asks the runtime to drop a peer's ephemeral state
// immediately rather than waiting for its natural timeout, because every
// channel to that peer was just lost (spec §4.8's liveness rule).
type RemoveEphemeralPeerCmd struct {
	PeerId model.PeerId
}

func (RemoveEphemeralPeerCmd) cmd() {}

// ResolveFindCmd tells the runtime a local find has resolved (found or
// unavailable), so any waiter can be notified.
type ResolveFindCmd struct {
	DocId       model.DocId
	Unavailable bool
}

func (ResolveFindCmd) cmd() {}
