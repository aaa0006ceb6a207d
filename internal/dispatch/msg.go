// Package dispatch implements the Synchronizer's pure reducer: the
// (model, msg) -> (model', commands) state machine of spec §2/§4. It knows
// nothing about adapters, goroutines or I/O — those belong to
// internal/runtime, the imperative shell that feeds this package Msgs and
// executes the Cmds it returns. This split mirrors the teacher's own
// separation between core.Peer (protocol logic) and core.Transport
// (I/O), generalized into an explicit reducer per spec §9's guidance to
// replace inline-observer event emitters with typed, returned events.
package dispatch

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// Msg is the tagged union of every event the dispatcher can react to.
type Msg interface {
	msg()
}

// ChannelAdded is raised when an adapter reports a new pending channel
// (spec §4.1).
type ChannelAdded struct {
	Channel model.Channel
}

func (ChannelAdded) msg() {}

// ChannelEstablish is raised when the transport layer has derived a remote
// identity for a pending channel (spec §4.1).
type ChannelEstablish struct {
	ChannelId      model.ChannelId
	RemoteIdentity model.Identity
}

func (ChannelEstablish) msg() {}

// ChannelReceive delivers one inbound protocol message.
type ChannelReceive struct {
	ChannelId model.ChannelId
	Message   protocol.Message
}

func (ChannelReceive) msg() {}

// ChannelRemoved is raised on disconnect; the channel is forgotten, the
// owning PeerState is retained.
type ChannelRemoved struct {
	ChannelId model.ChannelId
}

func (ChannelRemoved) msg() {}

// DocEnsure is a local request (from the façade) asking the document to
// exist locally. Peer announcements (discovery, new-doc) create documents
// directly, without this msg.
type DocEnsure struct {
	DocId     model.DocId
	Mergeable bool

	// RequestingChannels is not read by the dispatcher: when the document
	// is new, handleDocEnsure registers a PendingFind over every visible
	// established channel regardless of this field (spec §4.5).
	RequestingChannels []model.ChannelId
}

func (DocEnsure) msg() {}

// DocDelete is the only way a document ever leaves the model (spec §3).
type DocDelete struct {
	DocId model.DocId
}

func (DocDelete) msg() {}

// LocalChange is raised by the runtime when a document's Subscribe
// callback fires, for both genuinely local edits and imports (spec §4.6).
type LocalChange struct {
	DocId  model.DocId
	Source model.ChangeSource

	// ExcludeChannel is the channel an import arrived on, excluded from
	// propagation to prevent immediate echo (spec §4.6). Zero value
	// (ExcludeValid == false) for genuinely local edits.
	ExcludeChannel model.ChannelId
	ExcludeValid   bool
}

func (LocalChange) msg() {}

// HeartbeatTick is raised on the ephemeral heartbeat interval (spec §4.8).
type HeartbeatTick struct {
	DocId model.DocId
}

func (HeartbeatTick) msg() {}

// CmdFailed is posted by the runtime when an asynchronously executed Cmd
// fails, per the error-handling design's "propagation policy" (spec §7).
type CmdFailed struct {
	Cmd Cmd
	Err error
}

func (CmdFailed) msg() {}
