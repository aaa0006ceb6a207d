package dispatch

import (
	"github.com/jabolina/go-sync/internal/document"
	"github.com/jabolina/go-sync/internal/logging"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/permission"
	"github.com/jabolina/go-sync/internal/protocol"
)

// Dispatcher is the Synchronizer's reducer. It owns the model exclusively
// and is driven by a single goroutine (internal/runtime), so no internal
// locking is needed — the same single-threaded-cooperative guarantee the
// teacher's core.Peer.poll loop relies on.
//
// Document import/export/version are called synchronously from within
// Dispatch, per spec §5's "doc.import and doc.export are treated as
// synchronous"; only genuinely imperative effects (send, subscribe,
// ready-state emission, ephemeral application) are returned as Cmds for
// the runtime to execute.
type Dispatcher struct {
	model *model.SynchronizerModel
	docs  *document.Store
	rules permission.Rules
	log   logging.Logger

	channelIds model.ChannelIdSource

	// lastReadyStates caches the last emitted ready-state set per document
	// for the deep-compare-before-emit rule of spec §4.9.
	lastReadyStates map[model.DocId]model.ReadyStateSet
}

// New creates a Dispatcher for the given local identity.
func New(identity model.Identity, docs *document.Store, rules permission.Rules, log logging.Logger) *Dispatcher {
	return &Dispatcher{
		model:           model.NewSynchronizerModel(identity),
		docs:            docs,
		rules:           rules,
		log:             log,
		lastReadyStates: make(map[model.DocId]model.ReadyStateSet),
	}
}

// Model exposes the live model for read-only inspection (tests, façade
// queries). Callers must not mutate it; only Dispatch may.
func (d *Dispatcher) Model() *model.SynchronizerModel { return d.model }

// Dispatch is the reducer entry point: it routes msg to the matching
// handler and returns the commands the runtime must execute. Every error
// encountered while processing is logged and absorbed — per spec §7 the
// dispatcher is total and never panics or returns an error of its own.
func (d *Dispatcher) Dispatch(msg Msg) []Cmd {
	switch m := msg.(type) {
	case ChannelAdded:
		return d.handleChannelAdded(m)
	case ChannelEstablish:
		return d.handleChannelEstablish(m)
	case ChannelReceive:
		return d.handleChannelReceive(m.ChannelId, m.Message)
	case ChannelRemoved:
		return d.handleChannelRemoved(m)
	case DocEnsure:
		return d.handleDocEnsure(m)
	case DocDelete:
		return d.handleDocDelete(m)
	case LocalChange:
		return d.handleLocalChange(m)
	case HeartbeatTick:
		return d.handleHeartbeatTick(m)
	case CmdFailed:
		d.log.Warnf("command failed: %#v: %v", m.Cmd, m.Err)
		return nil
	default:
		d.log.Warnf("unhandled message %#v", msg)
		return nil
	}
}

// handleChannelReceive processes one inbound protocol message, unwrapping
// Batch into its members and concatenating their commands (spec §4.2).
func (d *Dispatcher) handleChannelReceive(channelId model.ChannelId, message protocol.Message) []Cmd {
	ch, ok := d.model.Channels[channelId]
	if !ok {
		d.log.Warnf("protocol violation: message on unknown channel %v", channelId)
		return nil
	}

	if batch, ok := message.(protocol.Batch); ok {
		var cmds []Cmd
		for _, inner := range batch.Messages {
			cmds = append(cmds, d.handleChannelReceive(channelId, inner)...)
		}
		return cmds
	}

	// Establishment messages work on any channel state; everything else
	// requires an established channel (spec §4.2).
	switch message.Type() {
	case protocol.TypeEstablishRequest, protocol.TypeEstablishResponse:
		return d.handleEstablishmentMessage(ch, message)
	}

	if !ch.Established() {
		d.log.Warnf("protocol violation: message type %v on non-established channel %v", message.Type(), channelId)
		return nil
	}

	switch msg := message.(type) {
	case protocol.DirectoryRequest:
		return d.handleDirectoryRequest(ch)
	case protocol.DirectoryResponse:
		return d.handleDirectoryResponse(ch, msg)
	case protocol.NewDoc:
		return d.handleNewDoc(ch, msg)
	case protocol.SyncRequest:
		return d.handleSyncRequest(ch, msg)
	case protocol.SyncResponse:
		return d.handleSyncResponse(ch, msg)
	case protocol.UpdateMessage:
		return d.handleUpdateMessage(ch, msg)
	case protocol.DeleteRequest:
		return d.handleDeleteRequest(ch, msg)
	case protocol.DeleteResponse:
		return d.handleDeleteResponse(ch, msg)
	case protocol.Ephemeral:
		return d.handleEphemeral(ch, msg)
	default:
		d.log.Warnf("protocol violation: unknown message type %v", message.Type())
		return nil
	}
}
