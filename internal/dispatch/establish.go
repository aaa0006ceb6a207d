package dispatch

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// handleChannelAdded records a newly reported channel and, for network
// channels, sends establish-request. Storage channels skip the handshake
// entirely and are marked established with a synthetic identity (spec
// §4.3).
func (d *Dispatcher) handleChannelAdded(m ChannelAdded) []Cmd {
	ch := m.Channel
	d.model.Channels[ch.ChannelId] = &ch

	if ch.Kind == model.ChannelStorage {
		synthetic := model.Identity{
			PeerId: model.PeerId("storage:" + ch.AdapterId),
			Name:   ch.AdapterId,
			Kind:   model.IdentityService,
		}
		return d.establishChannel(ch.ChannelId, synthetic)
	}

	return []Cmd{SendCmd{
		ToChannelIds: []model.ChannelId{ch.ChannelId},
		Message:      protocol.EstablishRequest{Identity: d.model.Identity},
	}}
}

func (d *Dispatcher) handleChannelEstablish(m ChannelEstablish) []Cmd {
	return d.establishChannel(m.ChannelId, m.RemoteIdentity)
}

// handleEstablishmentMessage processes establish-request/establish-response
// arriving as protocol messages rather than transport-level events (spec
// §4.2's note that some adapters derive identity from the first protocol
// message).
func (d *Dispatcher) handleEstablishmentMessage(ch *model.Channel, message protocol.Message) []Cmd {
	switch msg := message.(type) {
	case protocol.EstablishRequest:
		cmds := d.establishChannel(ch.ChannelId, msg.Identity)
		cmds = append(cmds, SendCmd{
			ToChannelIds: []model.ChannelId{ch.ChannelId},
			Message:      protocol.EstablishResponse{Identity: d.model.Identity},
		})
		return cmds
	case protocol.EstablishResponse:
		return d.establishChannel(ch.ChannelId, msg.Identity)
	default:
		return nil
	}
}

// establishChannel transitions a channel to Established, wires up the
// owning PeerState, and makes the reconnection decision of spec §4.3. It
// is idempotent: re-establishing an already-established channel (the
// simultaneous-handshake race of spec §8) simply re-applies the same
// transition.
func (d *Dispatcher) establishChannel(channelId model.ChannelId, identity model.Identity) []Cmd {
	ch, ok := d.model.Channels[channelId]
	if !ok {
		d.log.Warnf("establish on unknown channel %v", channelId)
		return nil
	}

	alreadyEstablished := ch.Established()
	ch.Status = model.ChannelEstablished
	ch.PeerId = identity.PeerId
	ch.RemoteIdentity = identity

	peer := d.model.PeerFor(identity)
	peer.AddChannel(channelId)

	var cmds []Cmd
	if !alreadyEstablished {
		cmds = append(cmds, d.reconnectionSync(ch, peer)...)
	}
	cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
	return cmds
}

// reconnectionSync implements spec §4.3's single most important
// correctness/perf property: a brand new peer gets a directory-request
// plus a sync-request for every visible local document; a returning peer
// with cached awareness only gets a sync-request for documents that
// changed (or are new) since we last spoke.
func (d *Dispatcher) reconnectionSync(ch *model.Channel, peer *model.PeerState) []Cmd {
	if peer.IsNew() {
		var cmds []Cmd
		cmds = append(cmds, SendCmd{
			ToChannelIds: []model.ChannelId{ch.ChannelId},
			Message:      protocol.DirectoryRequest{},
		})
		if reqs := d.visibleSyncRequests(peer, nil); len(reqs) > 0 {
			cmds = append(cmds, SendCmd{
				ToChannelIds: []model.ChannelId{ch.ChannelId},
				Message:      protocol.SyncRequest{Docs: reqs},
			})
		}
		return cmds
	}

	reqs := d.visibleSyncRequests(peer, peer.DocumentAwareness)
	if len(reqs) == 0 {
		return nil
	}
	return []Cmd{SendCmd{
		ToChannelIds: []model.ChannelId{ch.ChannelId},
		Message:      protocol.SyncRequest{Docs: reqs},
	}}
}

// visibleSyncRequests builds the sync-request doc list for peer. When
// cached is nil every visible document is requested unconditionally (brand
// new peer); otherwise only documents where our version has advanced past
// the cached lastKnownVersion, or that the peer had no, unknown or pending
// awareness for, are included; documents the peer reported absent are
// skipped.
func (d *Dispatcher) visibleSyncRequests(peer *model.PeerState, cached map[model.DocId]model.Awareness) []protocol.SyncDocRequest {
	var reqs []protocol.SyncDocRequest
	for docId, state := range d.model.Documents {
		if !d.rules.Visible(docId, peer.Identity.PeerId) {
			continue
		}
		ourVersion := state.Doc.Version()

		if cached == nil {
			reqs = append(reqs, protocol.SyncDocRequest{DocId: docId, RequesterVersion: ourVersion})
			continue
		}

		awareness, known := cached[docId]
		if !known || awareness.Status == model.AwarenessUnknown || awareness.Status == model.AwarenessPending {
			// New on our side from this peer's perspective: include it.
			reqs = append(reqs, protocol.SyncDocRequest{DocId: docId, RequesterVersion: ourVersion})
			continue
		}
		if awareness.Status == model.AwarenessSynced && !ourVersion.LessOrEqual(awareness.LastKnownVersion) {
			reqs = append(reqs, protocol.SyncDocRequest{DocId: docId, RequesterVersion: ourVersion})
		}
		// AwarenessAbsent or up-to-date synced: skip.
	}
	return reqs
}

// handleChannelRemoved drops the channel but keeps the owning PeerState so
// its cached document awareness survives for the next reconnect.
func (d *Dispatcher) handleChannelRemoved(m ChannelRemoved) []Cmd {
	ch, ok := d.model.Channels[m.ChannelId]
	if !ok {
		return nil
	}
	delete(d.model.Channels, m.ChannelId)

	var cmds []Cmd
	if ch.Established() {
		if peer, ok := d.model.Peers[ch.PeerId]; ok {
			peer.RemoveChannel(m.ChannelId)
			if !peer.HasLiveChannel() {
				for _, doc := range d.model.Documents {
					doc.RemoveSubscriber(ch.PeerId)
				}
				cmds = append(cmds, RemoveEphemeralPeerCmd{PeerId: ch.PeerId})
			}
		}
	}
	cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
	return cmds
}
