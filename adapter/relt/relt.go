// Package relt is a network-kind adapter.Adapter over
// github.com/jabolina/relt's reliable group broadcast — the transport the
// teacher built its whole protocol on (pkg/mcast/core/transport.go),
// repurposed here to carry opaque internal/wire frames instead of GM-Cast
// RPCs. One relt group maps to a fully-connected peer set; this adapter
// demultiplexes that group into one model.Channel per distinct origin it
// observes, the way a listening transport turns inbound connections into
// channels one at a time.
package relt

import (
	"context"
	"sync"

	"github.com/jabolina/relt/pkg/relt"
	"github.com/pkg/errors"

	"github.com/jabolina/go-sync/adapter"
	"github.com/jabolina/go-sync/internal/logging"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
	"github.com/jabolina/go-sync/internal/wire"
)

// Adapter wraps one relt.Relt instance joined to a single exchange group.
type Adapter struct {
	id    string
	group string
	r     *relt.Relt
	ctx   context.Context
	stop  context.CancelFunc
	log   logging.Logger

	mu           sync.Mutex
	seen         map[string]bool
	pendingQueue []string
	channelOf    map[string]model.ChannelId
	originOf     map[model.ChannelId]string
	backlog      map[string][]protocol.Message

	events chan adapter.Event
	once   sync.Once
}

// Join creates a relt instance named id and joins exchange group, wiring
// it up as a go-sync Adapter. Mirrors the teacher's NewTransport
// (DefaultReltConfiguration, Name, Exchange, NewRelt) exactly, generalized
// from a fixed GM-Cast partition to an arbitrary group address. log may be
// nil, in which case every failure path below is silently discarded, same
// as passing logging.NewNoopLogger().
func Join(id string, group string, log logging.Logger) (*Adapter, error) {
	conf := relt.DefaultReltConfiguration()
	conf.Name = id
	conf.Exchange = relt.GroupAddress(group)
	r, err := relt.NewRelt(*conf)
	if err != nil {
		return nil, errors.Wrapf(err, "relt: joining group %s", group)
	}
	if log == nil {
		log = logging.NewNoopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter{
		id:        id,
		group:     group,
		r:         r,
		ctx:       ctx,
		stop:      cancel,
		log:       log,
		seen:      make(map[string]bool),
		channelOf: make(map[string]model.ChannelId),
		originOf:  make(map[model.ChannelId]string),
		backlog:   make(map[string][]protocol.Message),
		events:    make(chan adapter.Event, 64),
	}
	go a.poll()
	return a, nil
}

func (a *Adapter) Id() string { return a.id }

func (a *Adapter) Bind(channelId model.ChannelId, _ model.Channel) {
	a.mu.Lock()
	if len(a.pendingQueue) == 0 {
		a.mu.Unlock()
		return
	}
	origin := a.pendingQueue[0]
	a.pendingQueue = a.pendingQueue[1:]
	a.channelOf[origin] = channelId
	a.originOf[channelId] = origin
	backlog := a.backlog[origin]
	delete(a.backlog, origin)
	a.mu.Unlock()

	for _, msg := range backlog {
		select {
		case a.events <- adapter.Event{Kind: adapter.EventChannelReceive, ChannelId: channelId, Message: msg}:
		case <-a.ctx.Done():
			return
		}
	}
}

// Send broadcasts message to the relt group; every Channel this adapter
// exposes shares the same underlying broadcast domain, so ToChannelIds is
// only used to decide whether to send at all.
func (a *Adapter) Send(envelope adapter.Envelope) error {
	if len(envelope.ToChannelIds) == 0 {
		return nil
	}
	data, err := wire.Encode(envelope.Message)
	if err != nil {
		return errors.Wrap(err, "relt: encoding outgoing frame")
	}
	return a.r.Broadcast(a.ctx, relt.Send{
		Address: relt.GroupAddress(a.group),
		Data:    data,
	})
}

func (a *Adapter) Events() <-chan adapter.Event { return a.events }

func (a *Adapter) Stop() {
	a.once.Do(func() {
		a.stop()
		close(a.events)
		if err := a.r.Close(); err != nil {
			a.log.Errorf("relt: failed closing group %s: %v", a.group, err)
		}
	})
}

func (a *Adapter) poll() {
	listener, err := a.r.Consume()
	if err != nil {
		a.log.Errorf("relt: failed consuming group %s: %v", a.group, err)
		return
	}
	for {
		select {
		case <-a.ctx.Done():
			return
		case recv, ok := <-listener:
			if !ok {
				return
			}
			a.handleRecv(recv)
		}
	}
}

func (a *Adapter) handleRecv(recv relt.Recv) {
	if recv.Error != nil {
		a.log.Errorf("relt: failed consuming message from %s: %v", recv.Origin, recv.Error)
		return
	}
	origin := recv.Origin
	msg, err := wire.Decode(recv.Data)
	if err != nil {
		a.log.Errorf("relt: failed decoding message from %s: %v", origin, err)
		return
	}

	a.mu.Lock()
	channelId, bound := a.channelOf[origin]
	if bound {
		a.mu.Unlock()
		select {
		case a.events <- adapter.Event{Kind: adapter.EventChannelReceive, ChannelId: channelId, Message: msg}:
		case <-a.ctx.Done():
		}
		return
	}

	a.backlog[origin] = append(a.backlog[origin], msg)
	firstSeen := !a.seen[origin]
	a.seen[origin] = true
	if firstSeen {
		a.pendingQueue = append(a.pendingQueue, origin)
	}
	a.mu.Unlock()

	if firstSeen {
		select {
		case a.events <- adapter.Event{
			Kind: adapter.EventChannelAdded,
			Pending: model.Channel{
				AdapterId: a.id,
				Kind:      model.ChannelNetwork,
				Status:    model.ChannelPending,
			},
		}:
		case <-a.ctx.Done():
		}
	}
}
