// Package inproc implements a zero-dependency adapter.Adapter pairing two
// process-local endpoints directly through Go channels: no serialization,
// no network. internal/synctest uses it to drive deterministic multi-peer
// scenarios without a real transport, the way the teacher's test package
// uses its in-memory core.Transport double (test/testing.go) rather than
// dialing real sockets in unit tests.
package inproc

import (
	"sync"

	"github.com/jabolina/go-sync/adapter"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// Adapter is one end of an in-process pair.
type Adapter struct {
	id   string
	kind model.ChannelKind

	mu        sync.Mutex
	channelId model.ChannelId
	bound     bool
	closed    bool
	peer      *Adapter

	events chan adapter.Event
	once   sync.Once
}

// NewPair creates two linked network-kind adapters identified by idA/idB,
// each immediately reporting a pending channel for the other end.
func NewPair(idA, idB string) (*Adapter, *Adapter) {
	a := newAdapter(idA)
	b := newAdapter(idB)
	a.peer = b
	b.peer = a
	a.announce()
	b.announce()
	return a, b
}

func newAdapter(id string) *Adapter {
	return &Adapter{
		id:     id,
		kind:   model.ChannelNetwork,
		events: make(chan adapter.Event, 64),
	}
}

func (a *Adapter) announce() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.events <- adapter.Event{
		Kind: adapter.EventChannelAdded,
		Pending: model.Channel{
			AdapterId: a.id,
			Kind:      a.kind,
			Status:    model.ChannelPending,
		},
	}
}

// Id returns this endpoint's adapter id.
func (a *Adapter) Id() string { return a.id }

// Bind records the ChannelId the runtime assigned to this endpoint's
// single channel.
func (a *Adapter) Bind(channelId model.ChannelId, _ model.Channel) {
	a.mu.Lock()
	a.channelId = channelId
	a.bound = true
	a.mu.Unlock()
}

// Send hands message directly to the paired endpoint.
func (a *Adapter) Send(envelope adapter.Envelope) error {
	a.mu.Lock()
	peer := a.peer
	a.mu.Unlock()
	if peer == nil {
		return nil
	}
	peer.deliver(envelope.Message)
	return nil
}

func (a *Adapter) deliver(message protocol.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || !a.bound {
		return
	}
	a.events <- adapter.Event{Kind: adapter.EventChannelReceive, ChannelId: a.channelId, Message: message}
}

// Events returns this endpoint's event stream.
func (a *Adapter) Events() <-chan adapter.Event { return a.events }

// Stop disconnects this endpoint, notifies the paired endpoint of the
// loss, and closes the event stream.
func (a *Adapter) Stop() {
	a.once.Do(func() {
		a.mu.Lock()
		peer := a.peer
		a.peer = nil
		a.closed = true
		close(a.events)
		a.mu.Unlock()

		if peer != nil {
			peer.peerGone()
		}
	})
}

func (a *Adapter) peerGone() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.peer = nil
	if a.closed || !a.bound {
		return
	}
	a.events <- adapter.Event{Kind: adapter.EventChannelRemoved, ChannelId: a.channelId}
}
