// Package adapter defines the transport-agnostic contract between the
// Synchronizer core and concrete transports (spec §4.1). It plays the same
// role the teacher's core.Transport interface plays for go-mcast's
// reliable-group transport, generalized from one fixed implementation to
// an open, registrable set (spec §9's "dynamic adapter plug-in").
package adapter

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// Envelope is one outbound send: a protocol message addressed to one or
// more channels on the same adapter.
type Envelope struct {
	ToChannelIds []model.ChannelId
	Message      protocol.Message
}

// Adapter is the fixed capability set every transport/storage plug-in
// implements (spec §4.1, §9's "adapters implement a fixed capability set").
type Adapter interface {
	// Id identifies this adapter instance for Channel.AdapterId.
	Id() string

	// Send delivers message to every channel in envelope.ToChannelIds.
	// Delivery is best-effort; a failing adapter should prefer to report
	// channel-removed asynchronously over returning an error, but may do
	// either (spec §4.1).
	Send(envelope Envelope) error

	// Stop releases resources and ceases delivery.
	Stop()

	// Events returns the channel of lifecycle/inbound events this adapter
	// raises. It is read exactly once, by the effect runtime, at
	// registration time.
	Events() <-chan Event

	// Bind tells the adapter which process-local ChannelId the runtime has
	// assigned to a channel it reported via EventChannelAdded, so the
	// adapter can tag every subsequent event for that channel with the same
	// id (ChannelId is assigned by the runtime the moment it observes the
	// pending channel, not by the adapter itself — spec §3).
	Bind(channelId model.ChannelId, pending model.Channel)
}

// EventKind discriminates the four adapter-raised events of spec §4.1.
type EventKind int

const (
	EventChannelAdded EventKind = iota
	EventChannelEstablish
	EventChannelReceive
	EventChannelRemoved
)

// Event is one lifecycle/inbound notification raised by an adapter.
type Event struct {
	Kind EventKind

	// Valid when Kind == EventChannelAdded.
	Pending model.Channel

	// Valid when Kind == EventChannelEstablish / EventChannelReceive /
	// EventChannelRemoved.
	ChannelId model.ChannelId

	// Valid when Kind == EventChannelEstablish.
	RemoteIdentity model.Identity

	// Valid when Kind == EventChannelReceive.
	Message protocol.Message
}
