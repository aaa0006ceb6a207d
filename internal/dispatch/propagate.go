package dispatch

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// handleLocalChange is fired by the runtime whenever a document's Subscribe
// callback runs, for both genuinely local edits and applied imports. It
// walks every peer with a live channel and decides, per spec §4.6's table,
// whether that peer gets an update, a snapshot, a new-doc announcement, or
// nothing at all.
func (d *Dispatcher) handleLocalChange(m LocalChange) []Cmd {
	state, ok := d.model.Documents[m.DocId]
	if !ok {
		return nil
	}

	var cmds []Cmd
	for _, ch := range d.model.EstablishedChannels() {
		if m.ExcludeValid && ch.ChannelId == m.ExcludeChannel {
			continue
		}
		if !d.rules.Visible(m.DocId, ch.PeerId) {
			continue
		}
		cmds = append(cmds, d.propagateToChannel(ch, state)...)
	}
	cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
	return cmds
}

// propagateToChannel applies spec §4.6's propagation table for one visible
// channel:
//
//   - subscribed                                  -> update
//   - not subscribed, peer awareness absent        -> nothing
//   - not subscribed, peer never asked (unknown)   -> new-doc announcement
//   - not subscribed, peer pending or stale synced -> new-doc announcement
//   - not subscribed, peer synced and caught up    -> nothing
func (d *Dispatcher) propagateToChannel(ch *model.Channel, state *model.DocState) []Cmd {
	peer := d.model.Peers[ch.PeerId]
	if peer == nil {
		return nil
	}

	ourVersion := state.Doc.Version()

	if state.IsSubscriber(ch.PeerId) {
		var transmission protocol.Transmission
		if state.Mergeable {
			data, err := state.Doc.ExportUpdateSince(peer.AwarenessOf(state.DocId).LastKnownVersion)
			if err != nil {
				d.log.Errorf("export update for %v failed: %v", state.DocId, err)
				return nil
			}
			transmission = protocol.UpdateTransmission{Data: data, Version: ourVersion}
		} else {
			data, err := state.Doc.ExportSnapshot()
			if err != nil {
				d.log.Errorf("export snapshot for %v failed: %v", state.DocId, err)
				return nil
			}
			transmission = protocol.SnapshotTransmission{Data: data, Version: ourVersion}
		}
		peer.SetAwareness(state.DocId, model.Synced(ourVersion))
		return []Cmd{SendCmd{
			ToChannelIds: []model.ChannelId{ch.ChannelId},
			Message:      protocol.UpdateMessage{DocId: state.DocId, Transmission: transmission},
		}}
	}

	awareness := peer.AwarenessOf(state.DocId)
	switch awareness.Status {
	case model.AwarenessAbsent:
		return nil
	case model.AwarenessSynced:
		if ourVersion.LessOrEqual(awareness.LastKnownVersion) {
			return nil
		}
	}

	peer.SetAwareness(state.DocId, model.Awareness{Status: model.AwarenessPending})
	return []Cmd{SendCmd{
		ToChannelIds: []model.ChannelId{ch.ChannelId},
		Message:      protocol.NewDoc{DocIds: []model.DocId{state.DocId}},
	}}
}
