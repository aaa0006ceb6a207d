package dispatch

import (
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/protocol"
)

// ensureDoc creates the DocState for docId if it doesn't already exist. It
// never sends anything over the wire — callers (handleDocEnsure, peer
// announcements in discovery.go) decide what, if anything, to request.
func (d *Dispatcher) ensureDoc(docId model.DocId, mergeable bool, _ []model.ChannelId) ([]Cmd, bool) {
	if _, ok := d.model.Documents[docId]; ok {
		return nil, false
	}
	handle, _ := d.docs.EnsureLoaded(docId)
	state := model.NewDocState(docId, handle, mergeable)
	d.model.Documents[docId] = state
	return []Cmd{SubscribeLocalChangesCmd{DocId: docId}}, true
}

// handleDocEnsure services a local request (the façade's repo.Get) for a
// document that may not exist yet. If it's brand new locally, every
// visible established channel is asked via sync-request and a PendingFind
// is registered so the caller can eventually learn the doc is unavailable
// (spec §4.5).
func (d *Dispatcher) handleDocEnsure(m DocEnsure) []Cmd {
	cmds, created := d.ensureDoc(m.DocId, m.Mergeable, nil)
	if !created {
		return append(cmds, d.readyStateCmdsForAllDocs()...)
	}

	var channelIds []model.ChannelId
	for _, ch := range d.model.EstablishedChannels() {
		if d.rules.Visible(m.DocId, ch.PeerId) {
			channelIds = append(channelIds, ch.ChannelId)
		}
	}

	if len(channelIds) == 0 {
		cmds = append(cmds, ResolveFindCmd{DocId: m.DocId, Unavailable: true})
		cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
		return cmds
	}

	d.model.PendingRequests[m.DocId] = model.NewPendingFind(m.DocId, channelIds)
	cmds = append(cmds, SendCmd{
		ToChannelIds: channelIds,
		Message:      protocol.SyncRequest{Docs: []protocol.SyncDocRequest{{DocId: m.DocId}}},
	})
	cmds = append(cmds, d.readyStateCmdsForAllDocs()...)
	return cmds
}

// handleDocDelete is the only path that removes a DocState; it never
// propagates (spec §1's non-goal on tombstones).
func (d *Dispatcher) handleDocDelete(m DocDelete) []Cmd {
	state, ok := d.model.Documents[m.DocId]
	if !ok {
		return nil
	}
	state.DisposeSubscription()
	delete(d.model.Documents, m.DocId)
	d.docs.Delete(m.DocId)
	delete(d.model.PendingRequests, m.DocId)
	delete(d.lastReadyStates, m.DocId)
	return nil
}
